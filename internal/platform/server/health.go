package server

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName はヘルスチェックで報告する社員 API のサービス名です。
// 空文字のサーバー全体のステータスも同じ値で更新されます。
const ServiceName = "talent.EmployeeService"

const defaultCheckInterval = 10 * time.Second

// Pinger はデータベースなど依存先の疎通確認を表します。
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc は関数を Pinger として扱うためのアダプタです。
type PingerFunc func(ctx context.Context) error

// Ping は f(ctx) を呼び出します。
func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthChecker は Pinger の結果を gRPC ヘルスサービスへ反映します。
type HealthChecker struct {
	server   *health.Server
	pinger   Pinger
	interval time.Duration
	logf     func(format string, args ...any)

	mu       sync.Mutex
	serving  bool
	checked  bool
	shutdown bool
}

// NewHealthChecker は HealthChecker を生成します。pinger が nil の場合は常に SERVING です。
func NewHealthChecker(pinger Pinger, interval time.Duration, logf func(format string, args ...any)) *HealthChecker {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthChecker{
		server:   hs,
		pinger:   pinger,
		interval: interval,
		logf:     logf,
	}
}

// Check は一度だけ疎通確認を行い、結果のステータスを設定します。
func (h *HealthChecker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	serving := true
	if h.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, h.interval)
		err := h.pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			serving = false
			h.logf("health: ping failed: %v", err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shutdown {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	if !h.checked || h.serving != serving {
		h.logf("health: status %s", status)
	}
	h.checked = true
	h.serving = serving

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run はコンテキストがキャンセルされるまで interval ごとに Check を繰り返します。
func (h *HealthChecker) Run(ctx context.Context) {
	h.Check(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Shutdown は全サービスを NOT_SERVING にし、以降の更新を無視します。
func (h *HealthChecker) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.shutdown = true
	h.server.Shutdown()
}
