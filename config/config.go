package config

import (
	"log"
	"sync"
	"time"

	"github.com/Astemirdum/library-client/pkg/kafka"
	"github.com/Astemirdum/library-client/pkg/logger"
	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"UI_HTTP_HOST" default:"127.0.0.1"`
	Port         string        `yaml:"port" envconfig:"UI_HTTP_PORT" default:"3000"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"UI_HTTP_READ" default:"15s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"UI_HTTP_WRITE" default:"15s"`
}

// Backend points at the library REST API.
type Backend struct {
	URL     string        `yaml:"url" envconfig:"BACKEND_URL" default:"http://127.0.0.1:8000"`
	Timeout time.Duration `yaml:"timeout" envconfig:"BACKEND_TIMEOUT"`
	RPS     float64       `yaml:"rps" envconfig:"BACKEND_RPS" default:"20"`
	Burst   int           `yaml:"burst" envconfig:"BACKEND_BURST" default:"5"`
}

type Session struct {
	Path string `yaml:"path" envconfig:"SESSION_DB_PATH" default:"library-session.db"`
}

type Config struct {
	Server  HTTPServer   `yaml:"server"`
	Backend Backend      `yaml:"backend"`
	Session Session      `yaml:"session"`
	Kafka   kafka.Config `yaml:"kafka"`
	Log     logger.Log   `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
	})

	return cfg
}
