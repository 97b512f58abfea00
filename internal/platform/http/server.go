package http

import (
	"context"
	"errors"
	"laundry/internal/config"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultShutdownTimeout = 10 * time.Second

// Start serves the API on cfg.Port until ctx is cancelled, then drains in-flight requests
// for at most the configured shutdown timeout.
func Start(ctx context.Context, cfg config.HTTPServer, router http.Handler) error {
	listener, listenErr := net.Listen("tcp", ":"+cfg.Port)
	if listenErr != nil {
		return listenErr
	}
	return serve(ctx, cfg, listener, newServer(cfg, router))
}

func newServer(cfg config.HTTPServer, router http.Handler) *http.Server {
	return &http.Server{
		Handler:           router,
		ReadHeaderTimeout: seconds(cfg.ReadHeaderTimeoutSeconds, 0),
		WriteTimeout:      seconds(cfg.WriteTimeoutSeconds, 0),
	}
}

func serve(ctx context.Context, cfg config.HTTPServer, listener net.Listener, server *http.Server) error {
	logrus.Infof("✅ HTTP server listening on %s", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), seconds(cfg.ShutdownTimeoutSeconds, defaultShutdownTimeout))
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			return shutdownErr
		}
		logrus.Info("HTTP server stopped")
		return nil
	case serveErr := <-errCh:
		return serveErr
	}
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
