package accountstore

import "context"

type ctxKey int

const (
	metaKey ctxKey = iota
	causationIDKey
	correlationIDKey
)

// CtxWithMeta returns a context carrying meta data which is stored along
// with every event saved using the context
func CtxWithMeta(ctx context.Context, meta map[string]string) context.Context {
	return context.WithValue(ctx, metaKey, meta)
}

// CtxWithCausationID returns a context carrying the id of the event
// that caused the events being saved
func CtxWithCausationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, causationIDKey, id)
}

// CtxWithCorrelationID returns a context carrying the correlation id
// stored with the events being saved
func CtxWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func metaFromCtx(ctx context.Context) map[string]string {
	meta, _ := ctx.Value(metaKey).(map[string]string)

	return meta
}

func causationIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(causationIDKey).(string)

	return id
}

func correlationIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)

	return id
}
