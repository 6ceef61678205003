package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/event"
	"github.com/banksecure/vigil/internal/storage"
)

// handleDecide implements POST /v1/decide.
// Auth middleware has already validated the Bearer token and injected the tenant.
func (d *Dependencies) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	tenant := tenantFromContext(r.Context())
	if tenant == nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "missing tenant context"})
		return
	}

	ev, err := event.Ingest(event.Event{
		ID:         req.EventID,
		AccountID:  req.AccountID,
		Timestamp:  req.Timestamp,
		Device:     req.Device,
		Geo:        req.Geo,
		SIM:        req.SIM,
		Behavioral: req.Behavioral,
		Channel:    event.Channel(req.Channel),
		Origin:     req.Origin,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: err.Error()})
		return
	}

	dec, err := d.Pipeline.DecideWith(r.Context(), ev, tenant.AggCfg)
	if err != nil {
		d.Logger.Error("decision pipeline failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Decision failed"})
		return
	}

	// Fire-and-forget: persist the decision and dispatch alerts.
	d.writeDecisionEvent(ev, tenant.ID, dec)
	d.Alerts.Dispatch(dec, tenant.AlertChannel)

	// Profile learning happens only on Allow, off the request path.
	if dec.Decision == engine.DecisionAllow {
		go d.applyProfile(ev)
	}

	writeJSON(w, http.StatusOK, DecideResponse{
		Decision:       dec.Decision.String(),
		EventID:        dec.EventID,
		AccountID:      dec.AccountID,
		CompositeScore: dec.Composite,
		Confidence:     dec.Confidence,
		ReasonCodes:    dec.ReasonCodes,
		LayerBreakdown: dec.Breakdown,
		LatencyMs:      dec.LatencyMS,
	})
}

// applyProfile folds an allowed event into the account profile in the
// background. A conflict that survives the retry is logged and dropped; the
// next allowed event re-learns the same signals.
func (d *Dependencies) applyProfile(ev *event.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Updater.Apply(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		d.Logger.Warn("profile update failed",
			zap.String("account_id", ev.AccountID),
			zap.Error(err),
		)
	}
}

// writeDecisionEvent flattens the decision and fires it to the async writer.
func (d *Dependencies) writeDecisionEvent(ev *event.Event, tenantID string, dec *engine.RiskDecision) {
	names := make([]string, len(dec.Breakdown))
	scores := make([]float64, len(dec.Breakdown))
	confidences := make([]float64, len(dec.Breakdown))
	for i, b := range dec.Breakdown {
		names[i] = b.Layer
		scores[i] = b.Score
		confidences[i] = b.Confidence
	}

	d.Writer.Write(&storage.DecisionEvent{
		RequestID:        uuid.New().String(),
		TenantID:         tenantID,
		EventID:          ev.ID,
		AccountID:        ev.AccountID,
		Timestamp:        ev.Timestamp,
		Channel:          string(ev.Channel),
		Decision:         dec.Decision.String(),
		CompositeScore:   dec.Composite,
		Confidence:       dec.Confidence,
		ReasonCodes:      dec.ReasonCodes,
		LayerNames:       names,
		LayerScores:      scores,
		LayerConfidences: confidences,
		LatencyMs:        dec.LatencyMS,
	})
}
