package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/banksecure/vigil/internal/event"
)

const maxSimulateCount = 50

// handleSimulate synthesizes a scenario's event stream and runs each event
// through the decision pipeline with the default calibration. Decisions are
// not persisted and no alerts fire; this exists for calibration work and
// demos against a running instance.
func (d *Dependencies) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateReq
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	scenario, ok := event.ParseScenario(req.Scenario)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "unknown scenario"})
		return
	}
	if req.AccountID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "account_id is required"})
		return
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}
	if count > maxSimulateCount {
		count = maxSimulateCount
	}

	resp := SimulateResp{
		Scenario:  scenario.String(),
		Decisions: make([]DecideResponse, 0, count),
	}
	now := time.Now().UTC()
	for seq := 0; seq < count; seq++ {
		ev := event.Synthesize(scenario, req.AccountID, seq, now.Add(time.Duration(seq)*time.Minute))
		dec, err := d.Pipeline.Decide(r.Context(), ev)
		if err != nil {
			d.Logger.Error("simulation pipeline failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Simulation failed"})
			return
		}
		resp.Decisions = append(resp.Decisions, DecideResponse{
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

	writeJSON(w, http.StatusOK, resp)
}
