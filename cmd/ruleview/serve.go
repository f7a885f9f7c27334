package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fox-gonic/fox"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qiniu/ruleview/internal/middleware"
	"github.com/qiniu/ruleview/internal/rules"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the background rule poller",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log.Info().Msg("Starting ruleview api server")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv, err := rules.NewServer(ctx, cfg)
		if err != nil {
			return err
		}
		defer srv.Close()
		srv.Start(ctx)

		if zerolog.GlobalLevel() > zerolog.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}
		router := fox.New()
		router.Use(middleware.RequestID, middleware.AccessLog)
		if err := srv.UseApi(router); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Msgf("Starting server on %s", cfg.Server.BindAddr)
			errCh <- router.Run(cfg.Server.BindAddr)
		}()
		select {
		case err := <-errCh:
			log.Error().Err(err).Msg("start ruleview api server failed")
			return err
		case <-ctx.Done():
			log.Info().Msg("ruleview api server exit...")
			return nil
		}
	},
}
