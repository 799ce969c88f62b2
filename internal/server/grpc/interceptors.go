package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/conduit/internal/api"
	"github.com/dmitrijs2005/conduit/internal/common"
	"github.com/dmitrijs2005/conduit/internal/logging"
	"github.com/dmitrijs2005/conduit/internal/server/auth"
	"github.com/dmitrijs2005/conduit/internal/server/models"
	"github.com/oklog/ulid/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// requestLogInterceptor assigns a request id, returns it in the response
// header and logs the outcome of every call.
func (s *GRPCServer) requestLogInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := ulid.Make().String()
	ctx = logging.WithRequestID(ctx, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, id))

	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.OK:
		s.logger.Info(ctx, "request served", args...)
	case codes.Internal, codes.Unavailable, codes.Unknown:
		s.logger.Error(ctx, "request failed", args...)
	default:
		s.logger.Warn(ctx, "request rejected", args...)
	}

	return resp, err
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.metrics == nil {
		return handler(ctx, req)
	}

	start := time.Now()
	resp, err := handler(ctx, req)

	s.metrics.RequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	s.metrics.RequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()

	return resp, err
}

// errorInterceptor converts service errors into gRPC statuses. Causes of
// internal and upstream failures are logged here since the status hides them.
func (s *GRPCServer) errorInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err == nil {
		return resp, nil
	}

	st := toStatus(err)
	switch status.Code(st) {
	case codes.Internal, codes.Unavailable:
		s.logger.Error(ctx, "call failed", "method", info.FullMethod, "error", err)
	}
	return nil, st
}

// guardInterceptor authenticates protected methods and stores the principal
// in the context. Unprotected methods pass through untouched.
func (s *GRPCServer) guardInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !api.IsProtected(info.FullMethod) {
		return handler(ctx, req)
	}

	user, err := s.authenticate(ctx)
	if err != nil {
		reason := authFailureReason(err)
		if s.metrics != nil {
			s.metrics.AuthFailures.WithLabelValues(reason).Inc()
		}
		s.logger.Debug(ctx, "session rejected", "method", info.FullMethod, "reason", reason)
		return nil, err
	}

	return handler(auth.WithPrincipal(ctx, user), req)
}

func (s *GRPCServer) authenticate(ctx context.Context) (*models.User, error) {
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}
	if header == "" {
		return nil, common.ErrUnauthenticated
	}

	token, err := auth.ParseBearer(header)
	if err != nil {
		return nil, err
	}
	return s.guard.Authenticate(ctx, token)
}
