package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Baaaki/message-board/pkg/logger"
	"go.uber.org/zap"
)

// ErrShutdownTimeout means in-flight requests were still running when the deadline hit
var ErrShutdownTimeout = errors.New("graceful shutdown timed out")

// Server owns the HTTP listener and the resources closed after it drains
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	closeGrace      time.Duration
	closers         []namedCloser
}

// defaultCloseGrace bounds resource closing when draining already hit the deadline
const defaultCloseGrace = time.Second

type namedCloser struct {
	name  string
	close func() error
}

func New(addr string, handler http.Handler, shutdownTimeout time.Duration) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
		closeGrace:      defaultCloseGrace,
	}
}

// OnShutdown registers a resource to close once the listener has drained.
// Closers run in reverse registration order.
func (s *Server) OnShutdown(name string, closer io.Closer) {
	s.closers = append(s.closers, namedCloser{name: name, close: closer.Close})
}

// OnShutdownFunc is OnShutdown for plain functions
func (s *Server) OnShutdownFunc(name string, fn func() error) {
	s.closers = append(s.closers, namedCloser{name: name, close: fn})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
// It returns ErrShutdownTimeout if draining, or closing resources, overran its deadline.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server gracefully",
		zap.Duration("timeout", s.shutdownTimeout),
	)

	return s.Shutdown()
}

// Shutdown stops accepting connections, waits for in-flight requests and closes resources
func (s *Server) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var result error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			result = ErrShutdownTimeout
		} else {
			result = err
		}
		logger.Log.Error("HTTP server shutdown failed", zap.Error(err))
	} else {
		logger.Log.Info("HTTP server closed")
	}

	// Closers share the drain deadline; if draining used it all up they get closeGrace
	closeCtx := shutdownCtx
	if shutdownCtx.Err() != nil {
		var cancelGrace context.CancelFunc
		closeCtx, cancelGrace = context.WithTimeout(context.Background(), s.closeGrace)
		defer cancelGrace()
	}

	if err := s.closeResources(closeCtx); err != nil && result == nil {
		result = err
	}

	return result
}

// closeResources runs the closers in reverse order and gives up when ctx expires.
// A closer still blocked at that point is abandoned.
func (s *Server) closeResources(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := len(s.closers) - 1; i >= 0; i-- {
			c := s.closers[i]
			if err := c.close(); err != nil {
				logger.Log.Error("Failed to close resource",
					zap.String("resource", c.name),
					zap.Error(err),
				)
				continue
			}
			logger.Log.Info("Resource closed", zap.String("resource", c.name))
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		logger.Log.Error("Closing resources timed out")
		return ErrShutdownTimeout
	}
}
