package kafka

import (
	"github.com/IBM/sarama"
)

const ActivityTopic = "library.activity"

type Config struct {
	Addrs []string `yaml:"addrs"`
	Topic string   `yaml:"topic" envconfig:"ACTIVITY_TOPIC" default:"library.activity"`
}

func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Retry.Max = 3

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}
