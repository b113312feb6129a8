// Package httpapi implements the gateway's HTTP surface: account
// registration and login, and the OAuth2 provider-linkage handshake. The
// MCP Dispatch Layer in pkg/mcpserver is a separate TCP listener; this
// package never touches it directly.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fitsync/gateway/pkg/logger"
	"github.com/fitsync/gateway/pkg/oauthlink"
	"github.com/fitsync/gateway/pkg/session"
	"github.com/fitsync/gateway/pkg/users"
)

const (
	middlewareTimeout = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// NewRouter assembles the /auth and /oauth route trees behind chi's
// standard request-id and timeout middleware.
func NewRouter(userStore *users.Store, sessions *session.Authority, oauth *oauthlink.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Timeout(middlewareTimeout),
	)

	r.Mount("/auth", AuthRouter(userStore, sessions, oauth))
	r.Mount("/oauth", OAuthRouter(oauth))

	return r
}

// Serve runs the HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log := logger.FromContext(ctx)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
