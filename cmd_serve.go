package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cover_letter_studio/config"
	"cover_letter_studio/generator"
	"cover_letter_studio/imaging"
	"cover_letter_studio/logger"
	"cover_letter_studio/server"
)

func newServeCmd() *cobra.Command {
	var configPath, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ServerAddr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, err := buildProviders(ctx, cfg, log)
			if err != nil {
				return err
			}
			agent, err := generator.NewAgent(p.gpt, p.claude,
				generator.WithLogger(log),
				generator.WithConcurrencyLimit(cfg.MaxParallel),
				generator.WithStrictSpans(cfg.Review.StrictSpans),
			)
			if err != nil {
				return err
			}
			photos := &imaging.Service{Client: p.imager, Count: imaging.DefaultCount, Log: log}
			srv, err := server.New(agent, photos, cfg, log)
			if err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:              cfg.ServerAddr,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				log.Info("shutting down HTTP server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}()

			log.Infof("Starting web server on %s", cfg.ServerAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config/config.yaml", "path to config.yaml (optional)")
	cmd.Flags().StringVar(&addr, "addr", "", "http listen address (overrides server_addr)")
	return cmd
}
