package main

import (
	"context"
	stdLog "log"
	"os"

	"github.com/Astemirdum/library-client/app"
	"github.com/Astemirdum/library-client/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLog.Println("load envs from .env ", err)
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.InfoLevel),
	)

	if err := app.NewRootCommand(cfg).ExecuteContext(context.Background()); err != nil {
		stdLog.Fatal(err)
	}
}
