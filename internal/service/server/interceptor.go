package server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	api "github.com/oshokin/lost-item-tracker/internal/api/grpc/reminder"
	"github.com/oshokin/lost-item-tracker/internal/logger"
	"github.com/oshokin/lost-item-tracker/internal/service/common"
)

// auditInterceptor logs every call with its actor. Mutations are logged at
// info, status polls and fix reports at debug.
func auditInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	actor := common.ActorFromIncoming(ctx)

	resp, err := handler(logger.WithKV(ctx, "actor", actor), req)

	kvs := []any{
		"method", info.FullMethod,
		"actor", actor,
		"code", status.Code(err).String(),
		"duration", time.Since(start).String(),
	}

	switch info.FullMethod {
	case api.GetStatusMethod, api.ReportFixMethod:
		logger.DebugKV(ctx, "Handled request", kvs...)
	default:
		logger.InfoKV(ctx, "Handled request", kvs...)
	}

	return resp, err
}
