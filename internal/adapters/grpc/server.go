package grpc

import (
	"context"

	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/application"
	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

type ChargebackInternalServer struct {
	grpc_health_v1.UnimplementedHealthServer
	service *application.Service
}

func NewChargebackInternalServer(service *application.Service) *ChargebackInternalServer {
	return &ChargebackInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc *ChargebackInternalServer) {
	grpc_health_v1.RegisterHealthServer(server, svc)
}

func (s *ChargebackInternalServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	_ = s.service
	_ = ctx
	_ = req
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *ChargebackInternalServer) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	_ = req
	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
}
