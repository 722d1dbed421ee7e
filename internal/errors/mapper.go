// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts service/repo/infra errors into gRPC-friendly status errors.
// Keeps the service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	if kind, ok := KindOf(err); ok {
		return status.Error(grpcCode(kind), publicMessage(err, kind))
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// never leak storage details to callers
		return status.Error(codes.Internal, "internal error")
	}
}

// StatusClientClosedRequest is the non-standard code used when the client
// went away before the response was written.
const StatusClientClosedRequest = 499

// HTTPStatus returns the status code and the client-safe message for err.
func HTTPStatus(err error) (int, string) {
	if kind, ok := KindOf(err); ok {
		return httpCode(kind), publicMessage(err, kind)
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "record not found"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "request was canceled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// InvalidArgument creates an InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return New(KindInvalidArgument, msg)
}

func publicMessage(err error, kind Kind) string {
	if kind == KindStoreFailure {
		return "internal error"
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

func grpcCode(k Kind) codes.Code {
	switch k {
	case KindNotFound:
		return codes.NotFound
	case KindForbidden:
		return codes.PermissionDenied
	case KindInvalidOperation, KindInvalidArgument:
		return codes.InvalidArgument
	case KindUnauthenticated:
		return codes.Unauthenticated
	case KindConflict:
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

func httpCode(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidOperation, KindInvalidArgument:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
