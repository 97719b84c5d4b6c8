package grpc

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const serviceTokenHeader = "x-service-token"

// HealthCheckMethod stays reachable without a token for load balancer health checks.
const HealthCheckMethod = "/grpc.health.v1.Health/Check"

// ServiceAuth checks the shared service token on every call except the
// methods it was told to leave open.
type ServiceAuth struct {
	token []byte
	open  map[string]struct{}
}

func NewServiceAuth(token string, openMethods ...string) (*ServiceAuth, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("service auth token required")
	}
	open := make(map[string]struct{}, len(openMethods))
	for _, m := range openMethods {
		open[m] = struct{}{}
	}
	return &ServiceAuth{token: []byte(token), open: open}, nil
}

func (a *ServiceAuth) authorize(ctx context.Context, fullMethod string) error {
	if _, ok := a.open[fullMethod]; ok {
		return nil
	}
	md, _ := metadata.FromIncomingContext(ctx)
	var presented string
	if values := md.Get(serviceTokenHeader); len(values) > 0 {
		presented = strings.TrimSpace(values[0])
	}
	switch {
	case presented == "":
		return status.Error(codes.Unauthenticated, "missing_service_token")
	case subtle.ConstantTimeCompare([]byte(presented), a.token) != 1:
		return status.Error(codes.PermissionDenied, "invalid_service_token")
	}
	return nil
}

func (a *ServiceAuth) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := a.authorize(ctx, info.FullMethod); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}
