package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jpalmerr/alertpop/internal/mockapi"
)

// StartMockAlertServer runs an in-memory alerts API on addr, seeded with
// sample alerts. A new sample arrives every 20-40 seconds until ctx ends.
// Call this in a goroutine before creating the client.
func StartMockAlertServer(ctx context.Context, addr string) {
	st := mockapi.NewStore()
	mockapi.Seed(st)

	go func() {
		for n := 0; ; n++ {
			wait := 20*time.Second + time.Duration(rand.Intn(20))*time.Second
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
				a := st.Add(mockapi.Sample(n))
				slog.Debug("mock alert added", "id", a.ID, "type", a.Type)
			}
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mockapi.NewRouter(st, mockapi.Config{}, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("mock server failed", "error", err)
	}
}
