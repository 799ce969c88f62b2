package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/conduit/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps a service error to a gRPC status. Authentication failures
// carry only a generic message so that the precise cause never reaches the
// caller; unexpected errors become Internal.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrAuthentication):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrUpstreamUnavailable):
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// authFailureReason labels a guard rejection for metrics.
func authFailureReason(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, common.ErrMalformedToken):
		return "malformed"
	case errors.Is(err, common.ErrUpstreamUnavailable):
		return "unavailable"
	case errors.Is(err, common.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "other"
	}
}
