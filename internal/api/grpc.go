package api

import (
	"Go2NetSentry/internal/engine/manager"
	"log"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewHealthServer returns a health server whose detector service starts
// out NOT_SERVING until the first successful tick.
func NewHealthServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus(manager.HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

// NewGRPCServer creates a gRPC server exposing hs.
func NewGRPCServer(hs *health.Server) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	return s
}

// ServeGRPC listens on addr and serves s in the background.
func ServeGRPC(s *grpc.Server, addr string) (net.Addr, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	go func() {
		log.Printf("gRPC health server starting on %s", lis.Addr())
		if err := s.Serve(lis); err != nil {
			log.Printf("ERROR: gRPC server stopped: %v", err)
		}
	}()
	return lis.Addr(), nil
}
