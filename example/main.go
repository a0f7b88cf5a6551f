package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/alertpop"
	"github.com/jpalmerr/alertpop/dashboard"
	"github.com/jpalmerr/alertpop/internal/server"
	"github.com/jpalmerr/alertpop/render"
)

func main() {
	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start mock alerts server (see mock_server.go)
	go StartMockAlertServer(ctx, ":9999")
	time.Sleep(100 * time.Millisecond)

	src, err := alertpop.NewHTTPSource(alertpop.SourceConfig{BaseURL: "http://localhost:9999"})
	if err != nil {
		slog.Error("failed to create source", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	// cards go to the terminal and to every open browser page
	hub := server.NewHub(true, slog.Default())
	client, err := alertpop.New(src, render.NewMulti(render.NewTerminal(os.Stdout), hub),
		alertpop.WithPollInterval(5*time.Second),
		alertpop.WithSound(render.Bell(os.Stdout)),
	)
	if err != nil {
		slog.Error("failed to create client", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   alertpop Demo                                       ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   • 3 seeded alerts (1 high priority, stays put)      ║")
	fmt.Println("  ║   • a new alert every 20-40 seconds                   ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	if err := client.Start(ctx); err != nil {
		slog.Error("client error", "error", err)
		os.Exit(1)
	}
	defer client.Stop()

	srv := server.NewServer(client, hub, server.Config{Port: 8080, Title: "alertpop demo", Assets: dashboard.Assets}, slog.Default())
	if err := srv.Start(ctx); err != nil {
		slog.Error("web server error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
}
