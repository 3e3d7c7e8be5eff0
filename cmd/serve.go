package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xcaliber/xcaliber-bot/bot"
	"github.com/xcaliber/xcaliber-bot/bridge"
	"github.com/xcaliber/xcaliber-bot/clone"
	"github.com/xcaliber/xcaliber-bot/config"
	"github.com/xcaliber/xcaliber-bot/links"
	"github.com/xcaliber/xcaliber-bot/links/postgres"
	"github.com/xcaliber/xcaliber-bot/logger"
	"github.com/xcaliber/xcaliber-bot/scm"
	"github.com/xcaliber/xcaliber-bot/server"
)

// serveCmd initializes the serve command
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the PR lifecycle service",
		RunE:  serve,
	}
}

func serve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	v := viper.GetViper()
	ctx = config.SetViper(ctx, v)

	if err := config.ValidateCredentials(v); err != nil {
		return err
	}

	log, err := logger.New(v.GetString(config.LogLevel))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gateway := scm.Get(ctx, "github")

	var store links.Store = links.NewMemoryStore()
	if dsn := v.GetString(config.PostgresDSN); dsn != "" {
		pg, err := postgres.New(ctx, dsn)
		if err != nil {
			return err
		}
		defer pg.Close()

		store = pg
	}

	hub := bridge.NewHub(log)
	coordinator := clone.New(ctx, gateway, log)

	b, err := bot.New(v, gateway, store, coordinator, hub, log)
	if err != nil {
		return err
	}
	b.Bind(ctx, hub)

	srv := server.New(ctx, b, gateway, hub, log)

	go func() {
		addr := v.GetString(config.ListenAddr)
		log.Infow("listening", "address", addr)

		if err := srv.Listen(addr); err != nil {
			log.Errorw("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), v.GetDuration(config.ShutdownTimeout))
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = srv.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warnw("server shutdown timeout", "timeout", v.GetDuration(config.ShutdownTimeout))
	}

	return nil
}
