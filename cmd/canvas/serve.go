package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/spektr-org/canvas/api"
	"github.com/spektr-org/canvas/store"
)

func serveCmd() *cobra.Command {
	var data []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored reports, distinct values and queries over HTTP",
		Example: `  CANVAS_DB_DSN=postgres://localhost/canvas canvas serve --data orders.csv
  canvas serve --data sales.xlsx --data returns.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var opts []api.Option
			opts = append(opts, api.WithLogger(log))
			if len(data) > 0 {
				svc, _, err := loadLocal(data)
				if err != nil {
					return err
				}
				opts = append(opts, api.WithQueryService(svc), api.WithDistinctValues(svc))
			}

			var repo api.Repository
			if err := cfg.RequireDatabase(); err == nil {
				r, err := store.Open(ctx, cfg.Database.DSN)
				if err != nil {
					return err
				}
				defer r.Close()
				if err := r.EnsureSchema(ctx); err != nil {
					return err
				}
				repo = r
			} else {
				log.Warn("no database configured, dashboard routes disabled")
			}

			srv := &http.Server{
				Addr:              cfg.Server.Listen,
				Handler:           api.New(repo, opts...),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", cfg.Server.Listen)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			log.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringArrayVar(&data, "data", nil, "CSV or XLSX file served as a table (repeatable)")
	return cmd
}
