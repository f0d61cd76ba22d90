package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-restaurant-api.git/internal/config"
	"github.com/ariefcatur/go-restaurant-api.git/internal/eventlog"
	kafkax "github.com/ariefcatur/go-restaurant-api.git/internal/kafka"
	"github.com/ariefcatur/go-restaurant-api.git/internal/logging"
	"github.com/ariefcatur/go-restaurant-api.git/internal/orders"
	"github.com/ariefcatur/go-restaurant-api.git/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	service := cfg.ServiceName + "-eventlog"
	log := logging.New(service, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := redisx.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		log.WithError(err).Fatal("redis")
	}
	defer rdb.Close()

	svc := &eventlog.Service{
		Dedup: &eventlog.RedisDeduper{Redis: rdb, Service: "eventlog"},
		Log:   log.WithField("component", "eventlog"),
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.EventlogGroup, orders.TopicOrderEvents, cfg.EventlogWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.WithFields(logrus.Fields{
			"group":   cfg.EventlogGroup,
			"topic":   orders.TopicOrderEvents,
			"workers": cfg.EventlogWorkers,
		}).Info("eventlog consumer started")
		if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
			log.WithError(err).Error("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer...")
	cancel()
	<-done
}
