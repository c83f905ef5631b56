package auth

import (
	"context"
	"strings"

	"driverDeliveryWorkflow/repository"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that extracts and validates
// a Bearer JWT from incoming metadata and injects the Principal into the context.
// Methods listed in allowUnauthenticated will bypass authentication (e.g., health checks).
func NewUnaryAuthInterceptor(secret string, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, m := range allowUnauthenticated {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := allow[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		p, err := ParseFromMD(ctx, secret)
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "auth error: %v", err)
		}
		return handler(WithPrincipal(ctx, p), req)
	}
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing principal")
	}
	return p, nil
}

// RequireKind ensures the principal has the given kind (lowercased compare).
func RequireKind(ctx context.Context, kind string) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if p.Kind != strings.ToLower(kind) {
		return nil, status.Errorf(codes.PermissionDenied, "only %s can perform this action", strings.ToLower(kind))
	}
	return p, nil
}

// RequireDriver ensures the caller is a driver.
func RequireDriver(ctx context.Context) (*Principal, error) {
	return RequireKind(ctx, "driver")
}

// RequireOperator ensures the caller is an operator principal AND that the
// operator account exists. This prevents spoofing by a non-operator token.
func RequireOperator(ctx context.Context, operators *repository.OperatorRepository) (*Principal, error) {
	p, err := RequireKind(ctx, "operator")
	if err != nil {
		return nil, err
	}
	if operators == nil {
		return nil, status.Error(codes.Internal, "operators repository not configured")
	}
	op, err := operators.GetByUsername(ctx, p.Name)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "get operator: %v", err)
	}
	if op == nil {
		return nil, status.Error(codes.PermissionDenied, "only operator can perform this action")
	}
	return p, nil
}
