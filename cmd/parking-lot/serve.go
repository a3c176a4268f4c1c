package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/base-14/examples/go/parking-rules/internal/logging"
	"github.com/base-14/examples/go/parking-rules/internal/parking"
	"github.com/base-14/examples/go/parking-rules/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Run the interactive shell on stdin",
	RunE:  runShell,
}

var bothCmd = &cobra.Command{
	Use:   "both",
	Short: "Run the HTTP API and the interactive shell",
	RunE:  runBoth,
}

func init() {
	rootCmd.AddCommand(serveCmd, shellCmd, bothCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.NewServer(a.cfg.Server.Port, a.attendant, a.cfg.Telemetry.ServiceName, a.healthCheck())
	return serveUntilDone(ctx, srv)
}

func runShell(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	shell := parking.NewInstrumentedShell(a.attendant, a.telemetry, cmd.InOrStdin(), cmd.OutOrStdout())
	shell.Run(ctx)
	return nil
}

func runBoth(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.NewServer(a.cfg.Server.Port, a.attendant, a.cfg.Telemetry.ServiceName, a.healthCheck())

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- serveUntilDone(ctx, srv)
	}()

	cliDone := make(chan struct{})
	go func() {
		shell := parking.NewInstrumentedShell(a.attendant, a.telemetry, cmd.InOrStdin(), cmd.OutOrStdout())
		shell.Run(ctx)
		close(cliDone)
	}()

	select {
	case err := <-serverDone:
		return err
	case <-cliDone:
		logging.Logger().Info().Msg("CLI exited")
		stop()
		return <-serverDone
	}
}

// serveUntilDone runs srv until ctx is cancelled and then shuts it down.
func serveUntilDone(ctx context.Context, srv *server.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.Logger().Info().Msg("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger().Error().Err(err).Msg("server shutdown error")
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
