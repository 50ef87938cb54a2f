package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/suyashkore/tms-console/modules"
	"github.com/suyashkore/tms-console/pkg/configuration"
	"github.com/suyashkore/tms-console/pkg/stubserver"
)

func newStubCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run the in-memory backend stub",
		Long:  "Serves the full REST contract for every registered entity from memory. Local development only; nothing is persisted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			if port == 0 {
				port = conf.StubPort
			}
			logger := conf.Logger()

			stub := stubserver.New(modules.Load(), logger)
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           stub.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Infof("stub backend listening on %s", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

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
			logger.Info("stub backend stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (defaults to STUB_PORT)")
	return cmd
}
