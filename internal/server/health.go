package server

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService serves the standard gRPC health protocol on a listener.
// The empty service name reports overall status; named services can be set
// independently.
type HealthService struct {
	lis    net.Listener
	srv    *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewHealthService creates a health service on lis. Every service starts out
// NOT_SERVING until SetServing is called.
//
// Precondition: lis and logger must be non-nil.
func NewHealthService(lis net.Listener, logger *zap.Logger) *HealthService {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, h)
	return &HealthService{lis: lis, srv: srv, health: h, logger: logger}
}

// Addr returns the listen address.
func (s *HealthService) Addr() net.Addr { return s.lis.Addr() }

// SetServing marks service (or the overall server, for "") as serving or not.
func (s *HealthService) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// Start implements Service. It blocks until Stop.
func (s *HealthService) Start() error {
	s.logger.Info("health endpoint listening", zap.String("addr", s.lis.Addr().String()))
	return s.srv.Serve(s.lis)
}

// Stop implements Service.
func (s *HealthService) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}
