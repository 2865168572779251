package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ferryhook/relay/cache"
	"github.com/ferryhook/relay/config"
	eventredis "github.com/ferryhook/relay/event/redis"
	"github.com/ferryhook/relay/metrics"
	queueredis "github.com/ferryhook/relay/queue/redis"
	"github.com/ferryhook/relay/relay"
	sourceredis "github.com/ferryhook/relay/source/redis"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "relay-worker").Logger()

	cfg, err := config.GetConfig()
	if err != nil {
		logger.Error().Err(err).Msg("loading config")
		return
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("connecting to redis")
		return
	}
	defer client.Close()

	store := sourceredis.NewStoreWithClient(client)
	ledger := eventredis.NewLedgerWithClient(client)
	entityCache := cache.New(client, store, logger)

	processQ, err := queueredis.New(ctx, client, queueredis.Config{
		Stream:            cfg.ProcessStream,
		Group:             cfg.ConsumerGroup,
		VisibilityTimeout: cfg.VisibilityTimeout,
		MaxReceives:       cfg.MaxReceives,
		MaxDelay:          cfg.MaxDelay,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("creating process queue")
		return
	}
	deliverQ, err := queueredis.New(ctx, client, queueredis.Config{
		Stream:            cfg.DeliverStream,
		Group:             cfg.ConsumerGroup,
		VisibilityTimeout: cfg.VisibilityTimeout,
		MaxReceives:       cfg.MaxReceives,
		MaxDelay:          cfg.MaxDelay,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("creating deliver queue")
		return
	}

	collector := metrics.NewRedisCollector(client, []string{cfg.ProcessStream, cfg.DeliverStream})
	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		logger.Error().Err(err).Msg("creating metrics exporter")
		return
	}
	defer exporter.Shutdown(context.Background())

	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: exporter.ServeHTTP(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("serving metrics")
		}
	}()
	defer metricsSrv.Shutdown(context.Background())

	runner := relay.NewTaskRunner(256, logger)
	defer runner.Close()

	processor := relay.NewProcessor(ledger, entityCache, deliverQ, exporter.Pipeline(), logger)
	deliverer := relay.NewDeliverer(ledger, store, deliverQ, nil, nil, runner, exporter.Pipeline(), logger)

	var wg sync.WaitGroup
	run := func(name string, worker *relay.Worker) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("worker", name).Msg("worker stopped")
			}
		}()
	}

	run("processor", relay.NewWorker(processQ, processor, cfg.WorkerConcurrency, logger))
	run("deliverer", relay.NewWorker(deliverQ, deliverer, cfg.WorkerConcurrency, logger))

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("workers running")
	<-ctx.Done()
	wg.Wait()
	logger.Info().Msg("workers stopped")
}
