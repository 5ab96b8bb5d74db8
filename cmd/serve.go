package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathweaver/pathweaver/internal/config"
	"github.com/pathweaver/pathweaver/internal/logger"
	"github.com/pathweaver/pathweaver/internal/persist"
	"github.com/pathweaver/pathweaver/internal/profile"
	"github.com/pathweaver/pathweaver/internal/prompt"
	"github.com/pathweaver/pathweaver/internal/server"
	"github.com/pathweaver/pathweaver/internal/suggest"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the suggestion HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if servePort != 0 {
			cfg.Port = servePort
		}

		store, err := persist.NewStore(config.StorePath())
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.Close()

		profiles, err := profile.LoadRegistry(config.ProfilesPath())
		if err != nil {
			return err
		}

		settings := cfg.Suggest.Normalize()
		engine := suggest.NewEngine(settings, prompt.NewTemplates(store), profiles, nil)
		srv := server.NewServer(engine, store, settings)

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: srv.Handler(),
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Listening on :%d (source: %s)", cfg.Port, settings.Source)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			logger.Info("Shutting down")
			engine.Cancel()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
