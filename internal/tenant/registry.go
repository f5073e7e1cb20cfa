// Package tenant maps incoming requests onto isolated tenant databases:
// a registry of per-tenant connection pools built once at startup, a
// resolver that extracts the tenant selector from a request, and HTTP
// middleware that binds the resolved tenant into the request context.
package tenant

import (
	"context"
	"fmt"
	"sort"

	"github.com/koustreak/OrgRoute/internal/config"
	"github.com/koustreak/OrgRoute/internal/database"
	"github.com/koustreak/OrgRoute/internal/database/mysql"
	"github.com/koustreak/OrgRoute/internal/database/postgres"
	"github.com/koustreak/OrgRoute/internal/errs"
	"github.com/koustreak/OrgRoute/internal/logger"
)

// Handle is the per-tenant pool entry handed to request handlers.
type Handle struct {
	ID      string
	Dialect database.Dialect
	Pool    database.Pool
}

// PoolBuilder provisions one pool from one tenant config. Production code
// uses BuildPool; tests substitute fakes.
type PoolBuilder func(ctx context.Context, cfg config.TenantConfig) (database.Pool, database.Dialect, error)

// BuildPool provisions the driver matching cfg.Driver.
func BuildPool(ctx context.Context, cfg config.TenantConfig) (database.Pool, database.Dialect, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, database.DialectPostgres, err
		}
		return pool, database.DialectPostgres, nil
	case config.DriverMySQL:
		pool, err := mysql.New(ctx, cfg)
		if err != nil {
			return nil, database.DialectMySQL, err
		}
		return pool, database.DialectMySQL, nil
	default:
		return nil, 0, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown driver %q", cfg.Driver))
	}
}

// Registry maps tenant ids to their connection pools. It is built once at
// process startup and is read-only afterwards, so lookups need no locking.
// Changing the tenant set requires a restart.
type Registry struct {
	handles map[string]*Handle
	failed  map[string]error
}

// NewRegistry provisions one pool per tenant config. A tenant whose pool
// fails to initialize (unreachable host, bad credentials) is recorded as
// unavailable but does not abort the others: partial availability is
// acceptable, and the failure resurfaces on that tenant's first use.
func NewRegistry(ctx context.Context, configs []config.TenantConfig, build PoolBuilder, log *logger.Logger) *Registry {
	if build == nil {
		build = BuildPool
	}

	r := &Registry{
		handles: make(map[string]*Handle, len(configs)),
		failed:  make(map[string]error),
	}

	for _, cfg := range configs {
		pool, dialect, err := build(ctx, cfg)
		if err != nil {
			r.failed[cfg.ID] = err
			log.ErrorWith("tenant pool initialization failed", err, map[string]interface{}{
				"tenant": cfg.ID,
				"driver": cfg.Driver,
			})
			continue
		}
		r.handles[cfg.ID] = &Handle{ID: cfg.ID, Dialect: dialect, Pool: pool}
		log.With().Str("tenant", cfg.ID).Str("driver", cfg.Driver).Logger().
			Info("tenant pool ready")
	}

	return r
}

// Lookup returns the pool handle for id. Unrecognized ids and tenants whose
// pool failed to start are distinct failures: the first is a caller mistake,
// the second a temporarily unavailable backend.
func (r *Registry) Lookup(id string) (*Handle, error) {
	if h, ok := r.handles[id]; ok {
		return h, nil
	}
	if cause, ok := r.failed[id]; ok {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed,
			fmt.Sprintf("tenant %s is unavailable", id), cause)
	}
	return nil, errs.New(errs.ErrKindUnknownTenant, "Invalid tenant")
}

// Handles returns the available tenants sorted by id.
func (r *Registry) Handles() []*Handle {
	out := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close drains every tenant pool. Call at process shutdown.
func (r *Registry) Close() {
	for _, h := range r.handles {
		h.Pool.Close()
	}
}
