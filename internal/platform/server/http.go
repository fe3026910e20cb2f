package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const defaultShutdownTimeout = 5 * time.Second

// HTTPServer は net/http サーバーのライフサイクルを管理します。
type HTTPServer struct {
	listenAddr      string
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// NewHTTP は指定されたアドレスで handler を公開する HTTPServer を構築します。
func NewHTTP(listenAddr string, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		listenAddr: listenAddr,
		httpServer: &http.Server{
			Addr:              listenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: defaultShutdownTimeout,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると Shutdown します。
func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は与えられたリスナーで待ち受けます。
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		stopped <- s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	if err := <-stopped; err != nil {
		return fmt.Errorf("shutdown HTTP: %w", err)
	}
	return nil
}
