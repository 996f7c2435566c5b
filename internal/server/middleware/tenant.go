package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"

	"github.com/faciam-dev/gridbi/internal/tenant"
)

// ExtractTenant obtains the tenant ID from the X-Tenant-ID header. A missing
// tenant results in 400.
func ExtractTenant(api huma.API) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)
		tid := r.Header.Get("X-Tenant-ID")
		if tid == "" {
			huma.WriteErr(api, ctx, 400, "missing tenant identifier: set X-Tenant-ID header")
			return
		}
		r = r.WithContext(tenant.WithTenant(r.Context(), tid))
		next(humachi.NewContext(ctx.Operation(), r, w))
	}
}
