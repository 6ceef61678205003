package api

import (
	"time"

	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/event"
)

// --- POST /v1/decide request/response ---

// DecideRequest is the JSON body for POST /v1/decide. It carries the raw
// event exactly as the client observed it; ingestion validates it.
type DecideRequest struct {
	EventID    string                 `json:"event_id,omitempty"`
	AccountID  string                 `json:"account_id"`
	Timestamp  time.Time              `json:"timestamp,omitempty"`
	Channel    string                 `json:"channel"`
	Device     event.DeviceSnapshot   `json:"device_snapshot"`
	Geo        event.GeoCoordinate    `json:"geo_coordinate"`
	SIM        event.SIMIdentity      `json:"sim_identity"`
	Behavioral event.BehavioralSample `json:"behavioral_sample"`
	Origin     event.SessionOrigin    `json:"session_origin,omitempty"`
}

// DecideResponse is the JSON answer for POST /v1/decide.
type DecideResponse struct {
	Decision       string               `json:"decision"`
	EventID        string               `json:"event_id"`
	AccountID      string               `json:"account_id"`
	CompositeScore float64              `json:"composite_score"`
	Confidence     float64              `json:"confidence"`
	ReasonCodes    []string             `json:"reason_codes"`
	LayerBreakdown []engine.LayerResult `json:"layer_breakdown"`
	LatencyMs      float64              `json:"latency_ms"`
}

// --- Tenant CRUD ---

// CreateTenantReq is the JSON body for POST /api/vigil/tenants.
type CreateTenantReq struct {
	Name         string `json:"name"`
	AlertChannel string `json:"alert_channel,omitempty"`
}

// CreateTenantResp includes the plaintext API key (shown once).
type CreateTenantResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKey       string    `json:"api_key"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	AlertChannel string    `json:"alert_channel"`
	CreatedAt    time.Time `json:"created_at"`
}

// UpdateTenantReq is the JSON body for PATCH /api/vigil/tenants/{id}.
type UpdateTenantReq struct {
	Name         *string  `json:"name,omitempty"`
	AlertChannel *string  `json:"alert_channel,omitempty"`
	AllowBelow   *float64 `json:"allow_below,omitempty"`
	DenyAt       *float64 `json:"deny_at,omitempty"`
}

// TenantResp is the tenant view without the plaintext key.
type TenantResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	APIKeyPrefix string    `json:"api_key_prefix"`
	AlertChannel string    `json:"alert_channel"`
	AllowBelow   *float64  `json:"allow_below"`
	DenyAt       *float64  `json:"deny_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RotateKeyResp includes the new plaintext API key (shown once).
type RotateKeyResp struct {
	APIKey       string `json:"api_key"`
	APIKeyPrefix string `json:"api_key_prefix"`
}

// --- Decisions ---

// DecisionListResp is a page of persisted decisions.
type DecisionListResp struct {
	Decisions []DecisionResp `json:"decisions"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
}

// DecisionResp is one persisted decision row.
type DecisionResp struct {
	RequestID      string               `json:"request_id"`
	EventID        string               `json:"event_id"`
	AccountID      string               `json:"account_id"`
	Timestamp      time.Time            `json:"timestamp"`
	Channel        string               `json:"channel"`
	Decision       string               `json:"decision"`
	CompositeScore float64              `json:"composite_score"`
	Confidence     float64              `json:"confidence"`
	ReasonCodes    []string             `json:"reason_codes"`
	LayerBreakdown []engine.LayerResult `json:"layer_breakdown"`
	LatencyMs      float64              `json:"latency_ms"`
}

// --- Accounts ---

// FreezeResp acknowledges a freeze/unfreeze.
type FreezeResp struct {
	AccountID string `json:"account_id"`
	Frozen    bool   `json:"frozen"`
}

// --- Simulation ---

// SimulateReq is the JSON body for POST /api/vigil/simulate.
type SimulateReq struct {
	Scenario  string `json:"scenario"`
	AccountID string `json:"account_id"`
	Count     int    `json:"count,omitempty"`
}

// SimulateResp returns the synthesized events and their decisions.
type SimulateResp struct {
	Scenario  string           `json:"scenario"`
	Decisions []DecideResponse `json:"decisions"`
}

// ErrorResp is a standard error response body.
type ErrorResp struct {
	Detail string `json:"detail"`
}
