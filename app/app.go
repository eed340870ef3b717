package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astemirdum/library-client/config"
	"github.com/Astemirdum/library-client/internal/activity"
	"github.com/Astemirdum/library-client/internal/controller"
	"github.com/Astemirdum/library-client/internal/handler"
	"github.com/Astemirdum/library-client/internal/server"
	"github.com/Astemirdum/library-client/internal/service/library"
	"github.com/Astemirdum/library-client/internal/session"
	"github.com/Astemirdum/library-client/internal/shell"
	"github.com/Astemirdum/library-client/pkg/kafka"
	"github.com/Astemirdum/library-client/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type app struct {
	log      *zap.Logger
	ctrl     *controller.Controller
	store    *session.Store
	producer sarama.SyncProducer
}

// NewRootCommand builds the command tree. Flags override values read from the environment.
func NewRootCommand(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "library-client",
		Short:         "Client for the library lending service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Backend.URL, "backend", cfg.Backend.URL, "library API base URL")
	root.PersistentFlags().StringVar(&cfg.Session.Path, "session", cfg.Session.Path, "session database file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the view state over HTTP for a browser front-end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	serve.Flags().StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "UI server port")

	sh := &cobra.Command{
		Use:   "shell",
		Short: "Interactive terminal client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd.Context(), cfg)
		},
	}
	sh.Flags().StringVar(&cfg.Log.Sink, "log-file", cfg.Log.Sink, "write logs to this file instead of stderr")

	root.AddCommand(serve, sh)
	return root
}

func build(ctx context.Context, cfg config.Config) (*app, error) {
	log := logger.NewLogger(cfg.Log, "library-client")

	store, err := session.NewStore(ctx, cfg.Session.Path, log)
	if err != nil {
		return nil, errors.Wrap(err, "session store")
	}
	api, err := library.NewService(log, cfg.Backend, store)
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "library client")
	}

	a := &app{log: log, store: store}
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Warn("kafka.NewProducer, activity publishing disabled", zap.Error(err))
		} else {
			a.producer = producer
		}
	}
	var publisher activity.Publisher = activity.Noop{}
	if a.producer != nil {
		publisher = activity.NewPublisher(a.producer, cfg.Kafka.Topic, log)
	}

	a.ctrl = controller.New(log, api, store, controller.WithPublisher(publisher))
	restored, err := a.ctrl.Restore(ctx)
	if err != nil {
		log.Warn("restore session", zap.Error(err))
	}
	log.Debug("controller ready", zap.Bool("restored", restored), zap.String("backend", cfg.Backend.URL))
	return a, nil
}

func (a *app) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("producer.Close", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("store.Close", zap.Error(err))
	}
	_ = a.log.Sync()
}

func runServe(ctx context.Context, cfg config.Config) error {
	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	log := a.log

	h := handler.New(a.ctrl, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	select {
	case termSig := <-sig:
		log.Debug("Graceful shutdown", zap.Any("signal", termSig))
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "server run")
		}
		return nil
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
	return nil
}

func runShell(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log = shellLog(cfg.Log)
	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	return shell.New(a.ctrl, os.Stdin, os.Stdout, a.log).Run(ctx)
}

// shellLog keeps the terminal readable: without a log file only errors reach stderr.
func shellLog(l logger.Log) logger.Log {
	if l.Sink == "" && l.LogLevel < zapcore.ErrorLevel {
		l.LogLevel = zapcore.ErrorLevel
	}
	return l
}
