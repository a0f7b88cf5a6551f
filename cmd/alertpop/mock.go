package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jpalmerr/alertpop/config"
	"github.com/jpalmerr/alertpop/internal/mockapi"
	"github.com/spf13/cobra"
)

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown.
	shutdownTimeout = 10 * time.Second

	defaultMockPort = 8081
)

// mockCmd runs an in-memory alerts server.
var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run an in-memory alerts server for local testing",
	Long: `Run an in-memory alerts server speaking the default wire format.

  GET  /api/notifications               pending alerts
  POST /api/notifications               add an alert
  POST /api/notifications/{id}/mark_read acknowledge an alert

Use --seed to start with sample alerts and --every to keep adding them.
With --session-cookie, requests without that cookie get 401.

Example:
  alertpop mock --seed
  alertpop mock --port 9000 --every 20s --session-cookie role`,
	RunE: runMock,
}

func init() {
	rootCmd.AddCommand(mockCmd)
	mockCmd.Flags().IntP("port", "p", defaultMockPort, "port to listen on")
	mockCmd.Flags().Bool("seed", false, "start with sample alerts")
	mockCmd.Flags().Duration("every", 0, "add a sample alert at this interval (0 disables)")
	mockCmd.Flags().String("session-cookie", "", "require this cookie on every request")
	mockCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runMock(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	seed, _ := cmd.Flags().GetBool("seed")
	every, _ := cmd.Flags().GetDuration("every")
	cookie, _ := cmd.Flags().GetString("session-cookie")
	level, _ := cmd.Flags().GetString("log-level")

	logger, _ := newLogger(config.LogConfig{Level: level, Format: "text"}, cmd.ErrOrStderr())

	st := mockapi.NewStore()
	if seed {
		mockapi.Seed(st)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Handler:           mockapi.NewRouter(st, mockapi.Config{SessionCookie: cookie}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if every > 0 {
		go addSamples(ctx, st, every)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	logger.Info("mock alerts server started", "addr", ln.Addr().String(), "seeded", seed, "every", every.String())
	fmt.Fprintf(cmd.ErrOrStderr(), "mock alerts server on http://localhost:%d\n", port)

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown timed out",
			"timeout", shutdownTimeout.String(),
			"action", "forcing exit",
		)
	}
	return nil
}

func addSamples(ctx context.Context, st *mockapi.Store, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Add(mockapi.Sample(n))
		}
	}
}
