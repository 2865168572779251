package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ferryhook/relay/cache"
	"github.com/ferryhook/relay/config"
	eventredis "github.com/ferryhook/relay/event/redis"
	chihandlers "github.com/ferryhook/relay/internal/http/chi"
	"github.com/ferryhook/relay/metrics"
	"github.com/ferryhook/relay/plan"
	queueredis "github.com/ferryhook/relay/queue/redis"
	"github.com/ferryhook/relay/ratelimit"
	"github.com/ferryhook/relay/relay"
	sourceredis "github.com/ferryhook/relay/source/redis"
)

const TIMEOUT = 30 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "relay-api").Logger()

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

	plans := plan.NewTable()
	if cfg.PlansFile != "" {
		if err := plans.LoadFile(cfg.PlansFile); err != nil {
			logger.Error().Err(err).Str("path", cfg.PlansFile).Msg("loading plans file")
			return
		}
	}

	store := sourceredis.NewStoreWithClient(client)
	ledger := eventredis.NewLedgerWithClient(client)
	entityCache := cache.New(client, store, logger)
	limiter := ratelimit.New(client, logger)

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

	runner := relay.NewTaskRunner(256, logger)
	defer runner.Close()

	ingestor := relay.NewIngestor(entityCache, store, plans, limiter, ledger, processQ, runner, exporter.Pipeline(), logger)
	replayer := relay.NewReplayer(ledger, store, deliverQ, logger)

	r := chihandlers.Handlers(ingestor, ledger, replayer, entityCache, exporter.ServeHTTP())
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, ctx, errShutdown)
	logger.Info().Str("port", cfg.Port).Msg("listening")
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("serving")
		return
	}
	if err := <-errShutdown; err != nil {
		logger.Error().Err(err).Msg("shutting down")
	}
}

func shutdown(server *http.Server, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	switch err {
	case nil:
		errShutdown <- nil
	default:
		errShutdown <- fmt.Errorf("forcing the server closed: %w", err)
	}
}
