package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/simple-chat-api/internal/config"
	"github.com/iliyamo/simple-chat-api/internal/handler"
	"github.com/iliyamo/simple-chat-api/internal/logging"
	"github.com/iliyamo/simple-chat-api/internal/queue"
	"github.com/iliyamo/simple-chat-api/internal/router"
	"github.com/iliyamo/simple-chat-api/internal/service"
	"github.com/iliyamo/simple-chat-api/internal/telemetry"
)

const banner = "=================================================="

func main() {
	// .env is optional but must parse when present.
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg := config.Load()

	logger, logCloser, err := logging.New(logging.Options{File: cfg.LogFile, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, config.LoadTelemetryConfig())
	if err != nil {
		return err
	}

	cacheCfg := config.LoadCacheConfig()
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		logger.Warn("response cache disabled", "reason", err)
	} else {
		defer rdb.Close()
	}

	var events handler.EventPublisher
	evCfg := config.LoadEventsConfig()
	if evCfg.Enabled {
		pub := service.NewEventPublisher(evCfg.URL, evCfg.Queue, evCfg.Timeout)
		async := service.NewAsyncPublisher(pub, evCfg.Buffer, evCfg.Timeout, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), evCfg.Timeout)
			defer cancel()
			if err := async.Close(ctx); err != nil {
				logger.Warn("pending chat events not flushed", "error", err)
			}
			_ = pub.Close()
		}()
		events = async
	}
	if evCfg.RunConsumer {
		go func() {
			if err := queue.StartChatConsumer(ctx, evCfg.URL, evCfg.Queue, evCfg.ConsumerLogPath, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("chat consumer stopped", "error", err)
			}
		}()
	}

	h := handler.New(logger, tel, events)
	e := router.New(router.Deps{
		Logger:    logger,
		Handler:   h,
		Cache:     cacheCfg,
		Redis:     rdb,
		Telemetry: tel,
	})

	logger.Info(banner)
	logger.Info(config.ServiceName + " is starting up...")
	logger.Info("Startup time: " + time.Now().Format(time.DateTime))
	logger.Info(banner)
	logger.Info("listening", "addr", cfg.Addr(), "env", cfg.Env)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info(banner)
	logger.Info(config.ServiceName + " is shutting down...")
	logger.Info("Shutdown time: " + time.Now().Format(time.DateTime))
	logger.Info(banner)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Join(e.Shutdown(shutdownCtx), tel.Shutdown(shutdownCtx))
}
