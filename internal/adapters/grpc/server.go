// Package grpc exposes token validation to internal callers.
// Messages are structpb.Struct values so no generated stubs are required.
package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/disasterline/alert-backend/internal/domain"
	"github.com/disasterline/alert-backend/internal/ports"
)

const (
	serviceName         = "disasterline.auth.v1.AuthInternalService"
	validateTokenMethod = "/" + serviceName + "/ValidateToken"
)

type AuthInternalService interface {
	ValidateToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// TokenValidator is satisfied by *application.Service.
type TokenValidator interface {
	ValidateToken(ctx context.Context, raw string) (ports.AuthClaims, error)
}

type AuthInternalServer struct {
	tokens TokenValidator
}

func NewAuthInternalServer(tokens TokenValidator) *AuthInternalServer {
	return &AuthInternalServer{tokens: tokens}
}

func Register(server grpc.ServiceRegistrar, svc AuthInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*AuthInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "ValidateToken",
				Handler:    validateTokenHandler(svc),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "auth/v1/auth_internal.proto",
	}, svc)
}

// RegisterHealth installs the standard health service reporting SERVING.
func RegisterHealth(server grpc.ServiceRegistrar) *health.Server {
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	return healthSrv
}

func (s *AuthInternalServer) ValidateToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := req.GetFields()["token"].GetStringValue()
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	claims, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenMissing) {
			return nil, status.Error(codes.InvalidArgument, "missing token")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"valid":      true,
		"user_id":    claims.UserID,
		"email":      claims.Email,
		"role":       string(claims.Role),
		"expires_at": claims.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func validateTokenHandler(svc AuthInternalService) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return svc.ValidateToken(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: validateTokenMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return svc.ValidateToken(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
