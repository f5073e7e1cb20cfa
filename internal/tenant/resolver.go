package tenant

import (
	"net/http"

	"github.com/koustreak/OrgRoute/internal/config"
	"github.com/koustreak/OrgRoute/internal/errs"
)

// Resolver extracts the tenant identifier from an HTTP request.
type Resolver interface {
	// Resolve returns the tenant id selected by the request, or an
	// unknown-tenant error when the request names no usable tenant.
	Resolve(r *http.Request) (string, error)
}

// HeaderResolver reads the tenant selector from a single designated header.
//
// The header is trusted input from an authenticated upstream, not a security
// boundary. What happens when it is absent is a deliberate policy knob:
// FallbackDefault silently routes to the default tenant (the documented
// convenience behavior), FallbackReject fails closed.
type HeaderResolver struct {
	// Header is the selector header name (canonically "x-org").
	Header string

	// DefaultTenant is used for selector-less requests under FallbackDefault.
	DefaultTenant string

	// Fallback is config.FallbackDefault or config.FallbackReject.
	Fallback string
}

// NewHeaderResolver builds a HeaderResolver from the tenancy config.
func NewHeaderResolver(cfg config.TenancyConfig) *HeaderResolver {
	header := cfg.Header
	if header == "" {
		header = "x-org"
	}
	return &HeaderResolver{
		Header:        header,
		DefaultTenant: cfg.DefaultTenant,
		Fallback:      cfg.Fallback,
	}
}

// Resolve extracts the tenant id from the configured header.
func (h *HeaderResolver) Resolve(r *http.Request) (string, error) {
	if id := r.Header.Get(h.Header); id != "" {
		return id, nil
	}
	if h.Fallback == config.FallbackDefault && h.DefaultTenant != "" {
		return h.DefaultTenant, nil
	}
	return "", errs.New(errs.ErrKindUnknownTenant, "Invalid tenant")
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(r *http.Request) (string, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}
