package httpapi

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const grpcServiceName = "taskgrid.api"

// ServeGRPCHealth exposes the standard gRPC health service for infrastructure
// that probes over gRPC instead of HTTP. The serving status mirrors the same
// readiness probe /readyz uses, re-evaluated on an interval. Blocks until ctx
// ends.
func ServeGRPCHealth(ctx context.Context, addr string, probe ReadyProbe) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	setStatus := func() {
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		status := healthpb.HealthCheckResponse_SERVING
		if err := probe.Check(checkCtx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus(grpcServiceName, status)
		hs.SetServingStatus("", status)
	}
	setStatus()

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				setStatus()
			}
		}
	}()

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	return srv.Serve(lis)
}
