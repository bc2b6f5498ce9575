package grpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// ServiceName is the health service name reported for this API.
const ServiceName = "sellerhub.v1.API"

// Checker probes a dependency; a nil error means healthy.
type Checker func(ctx context.Context) error

// HealthServer exposes grpc.health.v1 and keeps it in sync with a Checker.
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	checker  Checker
	interval time.Duration
	logger   *slog.Logger
}

// NewHealthServer creates the gRPC server with the health service registered.
func NewHealthServer(checker Checker, interval time.Duration, logger *slog.Logger) *HealthServer {
	server := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)

	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &HealthServer{
		server:   server,
		health:   healthServer,
		checker:  checker,
		interval: interval,
		logger:   logger,
	}
}

// Refresh runs the checker once and publishes the result.
func (s *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if s.checker != nil {
		if err := s.checker(ctx); err != nil {
			s.logger.Warn("⚠️ [gRPC] Health check failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Watch refreshes the status every interval until ctx is done.
func (s *HealthServer) Watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Serve blocks serving on lis.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.logger.Info("🔌 [gRPC] Health server running...", "addr", lis.Addr().String())
	return s.server.Serve(lis)
}

// Shutdown marks the service as not serving and stops gracefully, forcing a
// stop if ctx ends first.
func (s *HealthServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
