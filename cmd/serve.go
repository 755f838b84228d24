package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/finagents/internal/adapters/transport/ws"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(app *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket session server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			listener, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", listen, err)
			}
			return serve(ctx, app, listener, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", app.cfg.GetString(keyServerListen), "Address to listen on")

	return cmd
}

// serve runs the session server on listener until ctx is done, then closes
// every session and drains the HTTP server.
func serve(ctx context.Context, app *app, listener net.Listener, out io.Writer) error {
	server := &http.Server{
		Handler:           ws.NewServer(app.manager, app.server, app.logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if _, err := fmt.Fprintf(out, "listening on %s\n", listener.Addr()); err != nil {
		return err
	}
	app.logger.Info("session server started", "addr", listener.Addr().String())

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		app.manager.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		app.logger.Info("session server stopped")
		return nil
	})

	return group.Wait()
}
