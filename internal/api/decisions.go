package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/banksecure/vigil/internal/chread"
	"github.com/banksecure/vigil/internal/engine"
)

func (d *Dependencies) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}

	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "tenant_id query parameter is required"})
		return
	}

	params := chread.ListDecisionsParams{
		TenantID: tenantID,
		Page:     queryInt(q, "page", 1),
		PageSize: queryInt(q, "page_size", 50),
	}
	if params.PageSize > 200 {
		params.PageSize = 200
	}
	if params.Page < 1 {
		params.Page = 1
	}

	if v := q.Get("account_id"); v != "" {
		params.AccountID = &v
	}
	if v := q.Get("decision"); v != "" {
		params.Decision = &v
	}
	if v := q.Get("channel"); v != "" {
		params.Channel = &v
	}
	if v := q.Get("reason_code"); v != "" {
		params.ReasonCode = &v
	}
	if v := q.Get("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.StartTime = &t
		}
	}
	if v := q.Get("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.EndTime = &t
		}
	}

	decisions, total, err := d.Reader.ListDecisions(r.Context(), params)
	if err != nil {
		d.Logger.Error("failed to list decisions", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list decisions"})
		return
	}

	resp := DecisionListResp{
		Decisions: make([]DecisionResp, 0, len(decisions)),
		Total:     total,
		Page:      params.Page,
		PageSize:  params.PageSize,
	}
	for _, row := range decisions {
		resp.Decisions = append(resp.Decisions, decisionRowToResp(row))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}

	eventID := r.PathValue("event_id")
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "tenant_id query parameter is required"})
		return
	}

	row, err := d.Reader.GetDecision(r.Context(), tenantID, eventID)
	if err != nil {
		d.Logger.Error("failed to get decision", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get decision"})
		return
	}
	if row == nil {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Decision not found."})
		return
	}

	writeJSON(w, http.StatusOK, decisionRowToResp(*row))
}

func (d *Dependencies) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}

	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "tenant_id query parameter is required"})
		return
	}
	days := queryInt(q, "days", 7)
	if days < 1 || days > 90 {
		days = 7
	}

	result, err := d.Reader.GetAnalytics(r.Context(), tenantID, days)
	if err != nil {
		d.Logger.Error("failed to get analytics", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get analytics"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func decisionRowToResp(row chread.DecisionRow) DecisionResp {
	breakdown := make([]engine.LayerResult, 0, len(row.LayerNames))
	for i, name := range row.LayerNames {
		b := engine.LayerResult{Layer: name}
		if i < len(row.LayerScores) {
			b.Score = row.LayerScores[i]
		}
		if i < len(row.LayerConfidences) {
			b.Confidence = row.LayerConfidences[i]
		}
		breakdown = append(breakdown, b)
	}

	return DecisionResp{
		RequestID:      row.RequestID,
		EventID:        row.EventID,
		AccountID:      row.AccountID,
		Timestamp:      row.Timestamp,
		Channel:        row.Channel,
		Decision:       row.Decision,
		CompositeScore: row.CompositeScore,
		Confidence:     row.Confidence,
		ReasonCodes:    row.ReasonCodes,
		LayerBreakdown: breakdown,
		LatencyMs:      row.LatencyMs,
	}
}

// queryInt parses an integer query parameter with a default.
func queryInt(q url.Values, key string, def int) int {
	v := q.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
