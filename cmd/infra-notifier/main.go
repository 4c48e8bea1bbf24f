// INFRA Notifier — пересылает события админки в Telegram-группу алертов.
//
// Потребляет очередь admin.notifications. Без BOT_TOKEN или
// ALERTS_TG_GROUP_ID события только логируются.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/infra/internal/config"
	"github.com/shaiso/infra/internal/mq"
	"github.com/shaiso/infra/internal/notify"
	"github.com/shaiso/infra/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting infra-notifier")

	var cfg config.Notifier
	if err := config.Load(&cfg); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AMQP.URL == "" {
		logger.Error("AMQP_URL is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mqConn, err := mq.NewConnection(cfg.AMQP.URL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	var sender notify.Sender
	if cfg.BotToken != "" && cfg.AlertsTgGroupID != 0 {
		sender = notify.NewTelegram(cfg.TelegramAPIURL, cfg.BotToken, cfg.AlertsTgGroupID)
	} else {
		logger.Warn("telegram not configured, events will only be logged")
	}
	relay := notify.NewRelay(sender, logger)

	consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueAdminNotifications),
		Handler:  relay.Handle,
		Prefetch: 10,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			http.Error(w, "amqp disconnected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("infra-notifier stopped")
}
