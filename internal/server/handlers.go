package server

import (
	"context"
	"net/http"
	"time"

	"github.com/koustreak/OrgRoute/internal/async"
	"github.com/koustreak/OrgRoute/internal/database"
	"github.com/koustreak/OrgRoute/internal/errs"
	"github.com/koustreak/OrgRoute/internal/logger"
	"github.com/koustreak/OrgRoute/internal/tenant"
)

const healthPingTimeout = 2 * time.Second

// Handler serves the resource endpoints. Every database call is dispatched
// through the bridge so the request goroutine only ever suspends awaiting
// the future — blocking pool waits happen on bridge workers.
type Handler struct {
	executor *database.Executor
	bridge   *async.Bridge[*database.Result]
	registry *tenant.Registry
}

// NewHandler wires the query execution path for the HTTP surface.
func NewHandler(executor *database.Executor, bridge *async.Bridge[*database.Result], registry *tenant.Registry) *Handler {
	return &Handler{executor: executor, bridge: bridge, registry: registry}
}

// handle builds the http.HandlerFunc for one operation in the dispatch table.
func (h *Handler) handle(op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, ok := tenant.FromContext(r.Context())
		if !ok {
			// Route wired without the tenant middleware.
			respondError(w, http.StatusInternalServerError, "no tenant bound to request")
			return
		}

		var args []any
		var echo map[string]any
		if op.bind != nil {
			var err error
			args, echo, err = op.bind(r)
			if err != nil {
				h.fail(w, r, op, err)
				return
			}
		}

		sql, err := op.statement(rc.Handle.Dialect)
		if err != nil {
			h.fail(w, r, op, err)
			return
		}

		pool := rc.Handle.Pool
		future, err := h.bridge.Submit(r.Context(), func(ctx context.Context) (*database.Result, error) {
			return h.executor.Execute(ctx, pool, sql, args)
		})
		if err != nil {
			h.fail(w, r, op, err)
			return
		}

		result, err := future.Await()
		if err != nil {
			h.fail(w, r, op, err)
			return
		}

		respondJSON(w, op.status, map[string]any{op.resource: shapeResult(op, echo, result)})
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op operation, err error) {
	status := errs.HTTPStatus(err)
	log := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.ErrorWith("operation failed", err, map[string]interface{}{"operation": op.name})
	} else {
		log.With().Str("operation", op.name).Err(err).Logger().Debug("request rejected")
	}
	respondError(w, status, errs.PublicMessage(err))
}

// shapeResult converts a normalized query result into the response payload.
func shapeResult(op operation, echo map[string]any, result *database.Result) any {
	if !op.single {
		return result.Rows
	}
	if len(result.Rows) > 0 {
		// RETURNING clause produced the stored row.
		return result.Rows[0]
	}

	// Driver without RETURNING: answer with the bound values plus the
	// generated key.
	row := make(map[string]any, len(echo)+1)
	for k, v := range echo {
		row[k] = v
	}
	if result.LastInsertID != 0 {
		row["id"] = result.LastInsertID
	}
	return row
}

// healthz pings every available tenant pool and reports per-tenant status.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	tenants := make(map[string]string)
	healthy := true
	for _, handle := range h.registry.Handles() {
		if err := handle.Pool.Ping(ctx); err != nil {
			tenants[handle.ID] = "unreachable"
			healthy = false
			continue
		}
		tenants[handle.ID] = "ok"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	respondJSON(w, status, map[string]any{"status": overall, "tenants": tenants})
}
