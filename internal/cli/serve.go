package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pyventory/pyventory/internal/server"
)

// serveCommand creates the serve command exposing stored snapshots over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		dataDir  string
		mongoURI string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest snapshot over HTTP",
		Long: `Serve exposes the most recent scan snapshot as a read-only JSON API:

  GET /healthz              liveness check
  GET /api/snapshot         the full latest snapshot
  GET /api/snapshot/summary organization-wide aggregates only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := c.newStore(ctx, dataDir, mongoURI)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			srv := &http.Server{
				Addr:    addr,
				Handler: server.New(st, c.Logger).Handler(),
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			printInfo("Serving snapshots on %s", StyleValue.Render(addr))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8380", "listen address")
	cmd.Flags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory for snapshot storage")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "read snapshots from MongoDB instead of files")

	return cmd
}
