package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/flowcov/go-flowcov/diag"
	"github.com/spf13/cobra"
)

func newServeCommand(o *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the stored runs as JSON over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := o.openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			l, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}

			return serve(cmd.Context(), l, diag.NewServeMux(b, o.logger()), o)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:3000", "address to listen on")

	return cmd
}

// serve runs the server until ctx is canceled.
func serve(ctx context.Context, l net.Listener, h http.Handler, o *globalOptions) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Fprintf(o.stdout, "serving runs at http://%s/api/runs\n", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(l)
	}()

	select {
	case err := <-errc:
		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}

		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	}
}
