package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/alertpop"
	"github.com/jpalmerr/alertpop/config"
	"github.com/jpalmerr/alertpop/dashboard"
	"github.com/jpalmerr/alertpop/internal/server"
	"github.com/jpalmerr/alertpop/render"
	"github.com/spf13/cobra"
)

const shutdownGrace = 500 * time.Millisecond

// watchCmd shows alerts until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show pending alerts as they arrive",
	Long: `Poll the alerts server and show every new alert once.

Cards are drawn on the surfaces enabled under "display": the terminal,
desktop notifications, and a local web page with a live card stream.
Dismissing a card on the web page acknowledges it on the server.

If a session cookie is configured but has no value, alerts are disabled and
the command exits without polling.

The command runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  alertpop watch -c alertpop.yaml
  alertpop watch -c alertpop.yaml --env-file prod.env`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addConfigFlag(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog := newLogger(cfg.Log, cmd.ErrOrStderr())
	defer func() { _ = closeLog() }()

	src, err := config.BuildSource(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build source: %w", err)
	}
	defer src.Close()

	var (
		renderers []alertpop.Renderer
		hub       *server.Hub
	)
	if cfg.Display.TerminalEnabled() {
		renderers = append(renderers, render.NewTerminal(cmd.OutOrStdout()))
	}
	if cfg.Display.Desktop {
		renderers = append(renderers, render.NewDesktop(cfg.Title, cfg.Display.Icon))
	}
	if cfg.Display.Web.Enabled {
		hub = server.NewHub(cfg.Display.Web.PauseWhenHidden, logger)
		renderers = append(renderers, hub)
	}

	opts := append(config.BuildClientOptions(cfg), alertpop.WithLogger(logger))
	if s := buildSound(cfg.Display.Sound, cmd.OutOrStdout()); s != nil {
		opts = append(opts, alertpop.WithSound(s))
	}

	client, err := alertpop.New(src, render.NewMulti(renderers...), opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting alert client",
		"server", cfg.Server.BaseURL,
		"poll_interval", cfg.PollInterval.Duration().String(),
		"terminal", cfg.Display.TerminalEnabled(),
		"desktop", cfg.Display.Desktop,
		"web", cfg.Display.Web.Enabled,
	)

	if err := client.Start(ctx); err != nil {
		if errors.Is(err, alertpop.ErrNoSession) {
			fmt.Fprintf(cmd.ErrOrStderr(), "no %q session value set; alerts disabled\n", cfg.Session.Cookie)
			return nil
		}
		return fmt.Errorf("failed to start client: %w", err)
	}
	defer client.Stop()

	if hub != nil {
		srv := server.NewServer(client, hub, server.Config{
			Port:        cfg.Display.Web.Port,
			Title:       cfg.Title,
			Assets:      dashboard.Assets,
			RefreshRate: cfg.Display.Web.RefreshRate,
		}, logger)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start web page: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "alert page on %s\n", pageURL(srv.Addr()))
	}

	<-ctx.Done()

	// give the web server a moment to close pages and finish shutdown
	if hub != nil {
		time.Sleep(shutdownGrace)
	}
	logger.Info("shutdown complete")
	return nil
}

// pageURL returns the browser URL for the bound listener address.
func pageURL(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return fmt.Sprintf("http://localhost:%d", tcp.Port)
	}
	return "http://" + addr.String()
}

func buildSound(name string, w io.Writer) alertpop.Sound {
	switch name {
	case config.SoundChime:
		return render.Chime()
	case config.SoundBell:
		return render.Bell(w)
	default:
		return nil
	}
}

// compile-time check that the client satisfies the server surface
var _ server.Client = (*alertpop.Client)(nil)
