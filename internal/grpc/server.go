//go:build grpcserver

package grpcserver

import (
	"context"
	"net"

	driverv1 "driverDeliveryWorkflow/api/driver/v1"
	operatorv1 "driverDeliveryWorkflow/api/operator/v1"
	"driverDeliveryWorkflow/internal/auth"
	"driverDeliveryWorkflow/internal/config"
	"driverDeliveryWorkflow/repository"
	"driverDeliveryWorkflow/workflow"

	"google.golang.org/grpc"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// Deps bundles everything the gRPC servers need.
type Deps struct {
	Engine    *workflow.Engine
	Orders    *repository.OrderRepository
	Drivers   *repository.DriverRepository
	Operators *repository.OperatorRepository
}

// StartGRPC starts the gRPC server on the configured address and returns a
// shutdown function. It serves DriverService and OperatorService behind the
// JWT auth interceptor.
func StartGRPC(cfg *config.Config, deps Deps) (func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}

	addr := cfg.GRPCAddress
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(cfg.JWTSecret, healthCheckMethod)))

	ds := &DriverServer{Engine: deps.Engine, Orders: deps.Orders, Drivers: deps.Drivers}
	driverv1.RegisterDriverServiceServer(srv, ds)

	os := &OperatorServer{Engine: deps.Engine, Orders: deps.Orders, Drivers: deps.Drivers, Operators: deps.Operators}
	operatorv1.RegisterOperatorServiceServer(srv, os)

	go func() { _ = srv.Serve(lis) }()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
