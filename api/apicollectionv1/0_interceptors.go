package apicollectionv1

import (
	"context"

	"github.com/fulldump/slotdb/service"
)

type contextKey string

const ContextServicerKey contextKey = "7c1f0d2e-servicer"

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer) // TODO: can raise panic :D
}
