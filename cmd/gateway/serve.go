package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	api "github.com/mind-engage/mindengage-remedial/internal/api/http"
	auth "github.com/mind-engage/mindengage-remedial/internal/auth/middleware"
	"github.com/mind-engage/mindengage-remedial/internal/config"
	"github.com/mind-engage/mindengage-remedial/internal/profile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		a, err := newApp(startCtx, cfg, log)
		cancel()
		if err != nil {
			log.Error("startup failed", "error", err)
			return err
		}
		defer a.Close()

		deps := api.Deps{
			Auth:            auth.NewAuthService(cfg.AuthHMACSecret),
			Origins:         cfg.CORSOrigins(),
			Submitter:       a.orch,
			Lessons:         a.lessons,
			Progress:        a.ledger,
			Profiles:        profile.NewSQLStore(a.db),
			Remedials:       a.archive,
			Generator:       a.generator,
			Events:          a.events,
			DB:              a.db,
			Log:             log,
			RequestTimeout:  cfg.Remediation.GenerationTimeout + 10*time.Second,
			GenerateTimeout: cfg.Generate.TopicTimeout * time.Duration(cfg.Generate.RetryAttempts+1),
		}
		if cfg.EnableLocalAuth {
			deps.Login = &auth.LoginOptions{
				AdminUser:     cfg.AdminUser,
				AdminPassHash: cfg.AdminPassHash,
				AllowDemo:     cfg.Mode == config.ModeOffline,
			}
		}

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(deps),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "remediation", cfg.Remediation.Mode)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				log.Error("server stopped", "error", err)
				return err
			}
			return nil
		case <-ctx.Done():
		}
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
