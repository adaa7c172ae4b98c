package outcome

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCStatus переводит отказ в gRPC-статус для RPC-вызывающих.
func GRPCStatus(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}

	r, ok := AsRejection(err)
	if !ok {
		return status.New(codes.Internal, "internal error")
	}

	var c codes.Code
	switch r.Code {
	case CodeNotFound:
		c = codes.NotFound
	case CodeInvalidRequest:
		c = codes.InvalidArgument
	case CodeForbidden:
		c = codes.PermissionDenied
	case CodeConflict:
		c = codes.AlreadyExists
	case CodeRateLimited:
		c = codes.ResourceExhausted
	default:
		c = codes.Internal
	}
	return status.New(c, r.Message)
}
