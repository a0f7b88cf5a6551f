// Package alertpop provides an embeddable client that polls a server for
// pending alerts and shows each one as a transient pop-up card.
//
// The client periodically fetches the pending list, displays every alert it
// has not shown yet exactly once, lets the user dismiss or act on it, and
// acknowledges the dismissal back to the server. Normal-priority cards go
// away by themselves after 15 seconds; high-priority cards stay until
// dismissed.
//
// # Quick Start
//
//	src, err := alertpop.NewHTTPSource(alertpop.SourceConfig{
//	    BaseURL: "https://ats.example.com",
//	    Cookies: []*http.Cookie{{Name: "role", Value: "recruiter"}},
//	})
//	if err != nil { ... }
//
//	c, err := alertpop.New(src, render.NewTerminal(os.Stdout),
//	    alertpop.WithPollInterval(10*time.Second),
//	)
//	if err != nil { ... }
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	if err := c.Start(ctx); err != nil { ... }
//	<-ctx.Done()
//
// # Display
//
// Cards are drawn by a [Renderer]. The client only asks it to render,
// check presence, and remove; optional [Fader] and [Preparer] capabilities
// add a fade-out phase and one-time setup. Implementations live in the
// render package (terminal, desktop notifications) and in the host-page
// server (browser cards over a websocket).
//
// # Lifecycle
//
// Each alert id moves through unknown → displayed → dismissing → gone. An id
// leaves the registry as soon as dismissal starts; a second dismissal of the
// same id is a no-op. Acknowledgement is best effort: if it fails, the card
// is still removed locally and the alert shows up again as new on a later
// poll while the server keeps reporting it.
//
// [Client.Pause] and [Client.Resume] act as a visibility switch: paused
// clients schedule no polls, and resuming polls immediately. [Client.Stop]
// ends polling for good.
//
// # Architecture
//
//   - clock: time source abstraction with a manual fake for tests
//   - internal/poller: HTTP client, alerts feed, periodic scheduler
//   - internal/store: ordered registry with pub/sub
//   - internal/server: host-page API, SSE, and websocket card hub
//   - internal/mockapi: in-memory alerts server for demos and tests
//   - render: terminal and desktop renderers, sounds
//   - config: YAML configuration for the alertpop command
package alertpop
