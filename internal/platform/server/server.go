package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server は gRPC サーバーのライフサイクルを管理します。
// 登録されるのは標準の grpc.health.v1.Health サービスのみです。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *HealthChecker
}

// New は指定されたアドレスで待ち受ける gRPC サーバーを構築します。
func New(listenAddr string, checker *HealthChecker, opts ...grpc.ServerOption) *Server {
	srv := grpc.NewServer(opts...)
	if checker == nil {
		checker = NewHealthChecker(nil, 0, nil)
	}
	healthpb.RegisterHealthServer(srv, checker.server)

	return &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     checker,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は与えられたリスナーで待ち受けます。ヘルスチェックもあわせて開始します。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go s.health.Run(ctx)

	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

// GracefulStop はヘルス状態を NOT_SERVING にしてからサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// Health はヘルスチェッカーを返します。
func (s *Server) Health() *HealthChecker {
	return s.health
}

