// infra-admin — админка INFRA в терминале.
//
// Использование:
//
//	infra-admin [--api-url URL] [--json] [--session-file PATH] <command> [flags]
//
// Сессия сохраняется между запусками: сначала выполните login.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/infra/internal/cli"
	"github.com/shaiso/infra/internal/config"
	"github.com/shaiso/infra/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var cfg config.Client
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		os.Exit(1)
	}

	// Логи клиента — только предупреждения, в stderr
	level := telemetry.ParseLevel(os.Getenv("LOG_LEVEL"), slog.LevelWarn)
	logger := telemetry.NewLogger(os.Stderr, level, "text")

	app := &cli.App{
		APIURL:      cfg.APIURL,
		SessionFile: cfg.SessionFile,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Stdin:       os.Stdin,
		Logger:      logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCmd(app, version).ExecuteContext(ctx); err != nil {
		app.Output().Error(cli.ErrorMessage(err))
		cancel()
		os.Exit(1)
	}
}
