// INFRA API — backend админки: сессия администратора, источники, темы,
// алерты и финансы.
//
// Если задан AMQP_URL, API публикует события subscription.created и
// alert.resolved в exchange infra.admin.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/infra/internal/api"
	"github.com/shaiso/infra/internal/config"
	"github.com/shaiso/infra/internal/mq"
	"github.com/shaiso/infra/internal/repo"
	"github.com/shaiso/infra/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting infra-api")

	cfg, err := config.LoadAPI()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	handlerCfg := api.Config{
		Sources:       repo.NewSourceRepo(pool),
		Topics:        repo.NewTopicRepo(pool),
		Alerts:        repo.NewAlertRepo(pool),
		Subscriptions: repo.NewSubscriptionRepo(pool),
		Stats:         repo.NewStatsRepo(pool),
		Logger:        logger,
		Auth:          cfg.Auth,
		Prod:          cfg.IsProd(),
		Origins:       cfg.CORSOrigins(),
	}

	// RabbitMQ опционален: без него события не публикуются
	if cfg.AMQP.URL != "" {
		mqConn, err := mq.NewConnection(cfg.AMQP.URL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, events disabled", "error", err)
		} else {
			defer mqConn.Close()
			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			handlerCfg.Publisher = mq.NewPublisher(mqConn, logger)
			logger.Info("RabbitMQ connected")
		}
	}

	handler := api.NewHandler(handlerCfg)

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
