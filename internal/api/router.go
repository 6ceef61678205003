// Package api exposes the HTTP surface: the authenticated decision
// endpoint, tenant administration, decision reads and account freezes.
package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/banksecure/vigil/internal/alert"
	"github.com/banksecure/vigil/internal/chread"
	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/metrics"
	"github.com/banksecure/vigil/internal/profile"
	"github.com/banksecure/vigil/internal/storage"
	"github.com/banksecure/vigil/internal/store"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Tenants  store.TenantStore
	Pipeline *engine.Pipeline
	Updater  *profile.Updater
	Freezes  profile.FreezeStore
	Writer   storage.DecisionWriter
	Alerts   *alert.Dispatcher
	Reader   *chread.Reader // nil if ClickHouse unavailable
	AggCfg   engine.AggregatorConfig
	Logger   *zap.Logger
	CacheTTL time.Duration
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Decision endpoint (auth required via Bearer vgk_ token)
	mux.HandleFunc("POST /v1/decide", deps.authMiddleware(deps.handleDecide))

	// Tenant CRUD (no auth — dashboard auth added later)
	mux.HandleFunc("POST /api/vigil/tenants", deps.handleCreateTenant)
	mux.HandleFunc("GET /api/vigil/tenants", deps.handleListTenants)
	mux.HandleFunc("GET /api/vigil/tenants/{tenant_id}", deps.handleGetTenant)
	mux.HandleFunc("PATCH /api/vigil/tenants/{tenant_id}", deps.handleUpdateTenant)
	mux.HandleFunc("DELETE /api/vigil/tenants/{tenant_id}", deps.handleDeleteTenant)
	mux.HandleFunc("POST /api/vigil/tenants/{tenant_id}/rotate-key", deps.handleRotateKey)

	// Account freeze controls (no auth)
	mux.HandleFunc("POST /api/vigil/accounts/{account_id}/freeze", deps.handleFreeze)
	mux.HandleFunc("POST /api/vigil/accounts/{account_id}/unfreeze", deps.handleUnfreeze)

	// Decisions & Analytics (no auth)
	mux.HandleFunc("GET /api/vigil/decisions", deps.handleListDecisions)
	mux.HandleFunc("GET /api/vigil/decisions/{event_id}", deps.handleGetDecision)
	mux.HandleFunc("GET /api/vigil/analytics", deps.handleGetAnalytics)

	// Scenario simulation (no auth)
	mux.HandleFunc("POST /api/vigil/simulate", deps.handleSimulate)

	// Health check and metrics
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
