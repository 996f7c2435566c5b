package tenant

import "context"

type ctxKey struct{}

// WithTenant returns a context carrying the tenant ID taken from the
// X-Tenant-ID header.
func WithTenant(ctx context.Context, tid string) context.Context {
	return context.WithValue(ctx, ctxKey{}, tid)
}

// FromContext returns the request's tenant ID, or "" when none was set.
func FromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}
