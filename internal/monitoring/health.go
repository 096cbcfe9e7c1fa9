package monitoring

import (
	"context"
	"fmt"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ResolverService is the name the resolver reports under in the gRPC
// health service.
const ResolverService = "facing.Resolver"

// Health wraps the standard gRPC health service.
type Health struct {
	srv *health.Server
}

// NewHealth returns a health service reporting NOT_SERVING until
// SetServing(true) is called.
func NewHealth() *Health {
	h := &Health{srv: health.NewServer()}
	h.srv.SetServingStatus(ResolverService, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// SetServing flips the resolver and overall status.
func (h *Health) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.srv.SetServingStatus(ResolverService, status)
	h.srv.SetServingStatus("", status)
}

// Serve runs a gRPC server exposing the health service on lis until ctx is
// done, then stops it gracefully.
func (h *Health) Serve(ctx context.Context, lis net.Listener) error {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, h.srv)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[health] gRPC health service listening on %s", lis.Addr())
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		h.srv.Shutdown()
		s.GracefulStop()
		log.Printf("[health] gRPC server stopped")
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	}
}
