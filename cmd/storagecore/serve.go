package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storage core: metrics endpoint, event websocket, and orphan-upload sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		s.sweeper.Start()
		defer s.sweeper.Stop()

		mux := http.NewServeMux()
		if cfg.MetricsEnabled {
			mux.Handle("/metrics", promhttp.Handler())
		}
		if s.hub != nil {
			mux.Handle("/events", s.hub)
		}

		var server *http.Server
		if cfg.MetricsEnabled || s.hub != nil {
			addr := cfg.EventsWebsocketAddr
			if addr == "" {
				addr = fmt.Sprintf(":%d", cfg.MetricsPort)
			}
			server = &http.Server{Addr: addr, Handler: mux}
			go func() {
				logger.Infow("storagecore http endpoints listening", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Errorw("http server failed", "error", err)
				}
			}()
		}

		logger.Infow("storagecore serving", "rootPath", cfg.RootPath)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		logger.Infow("storagecore shutting down")
		if server != nil {
			_ = server.Shutdown(context.Background())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
