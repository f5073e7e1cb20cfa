package tenant

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/OrgRoute/internal/errs"
	"github.com/koustreak/OrgRoute/internal/logger"
)

// Middleware resolves the tenant selector on every request, authorizes it
// against the registry, and binds the RequestContext for downstream
// handlers. No database access happens here: an unknown tenant is rejected
// before any connection is touched.
func Middleware(resolver Resolver, registry *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.Resolve(r)
			if err != nil {
				rejectRequest(w, r, err)
				return
			}

			handle, err := registry.Lookup(id)
			if err != nil {
				rejectRequest(w, r, err)
				return
			}

			ctx := WithRequestContext(r.Context(), &RequestContext{
				TenantID: id,
				Handle:   handle,
			})
			ctx = logger.FromContext(ctx).With().Str("tenant", id).Logger().WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectRequest(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).ErrorWith("tenant resolution failed", err, nil)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": errs.PublicMessage(err)})
}
