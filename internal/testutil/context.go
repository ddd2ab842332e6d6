package testutil

import (
	"context"

	"github.com/reportik/reportik/internal/types"
)

const (
	DefaultTenantID = "tenant_01JTEST00000000000000000000"
	DefaultUserID   = "user_test"
)

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxTenantID, DefaultTenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
