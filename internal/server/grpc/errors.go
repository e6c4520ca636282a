package grpc

import (
	"errors"

	"github.com/dmitrijs2005/credvault/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps a service error onto a gRPC status. Internal failures are
// not described to the caller.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrDecryption):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, common.ErrOTPInvalid):
		return status.Error(codes.PermissionDenied, common.ErrOTPInvalid.Error())
	case errors.Is(err, common.ErrOTPExpired):
		return status.Error(codes.FailedPrecondition, common.ErrOTPExpired.Error())
	case errors.Is(err, common.ErrVersionConflict):
		return status.Error(codes.Aborted, common.ErrVersionConflict.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, common.ErrorAlreadyExists.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
