// Package chread provides read access to the ClickHouse risk_decisions
// table for the listing and analytics endpoints. Writes go through the
// storage package; this side is query-only.
package chread

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Reader provides read access to the ClickHouse risk_decisions table.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// DecisionRow represents a single row from the risk_decisions table.
type DecisionRow struct {
	RequestID        string    `json:"request_id"`
	TenantID         string    `json:"tenant_id"`
	EventID          string    `json:"event_id"`
	AccountID        string    `json:"account_id"`
	Timestamp        time.Time `json:"timestamp"`
	Channel          string    `json:"channel"`
	Decision         string    `json:"decision"`
	CompositeScore   float64   `json:"composite_score"`
	Confidence       float64   `json:"confidence"`
	ReasonCodes      []string  `json:"reason_codes"`
	LayerNames       []string  `json:"layer_names"`
	LayerScores      []float64 `json:"layer_scores"`
	LayerConfidences []float64 `json:"layer_confidences"`
	LatencyMs        float64   `json:"latency_ms"`
}

// ListDecisionsParams holds filters and pagination for decision listing.
type ListDecisionsParams struct {
	TenantID   string
	AccountID  *string
	Decision   *string
	Channel    *string
	ReasonCode *string
	StartTime  *time.Time
	EndTime    *time.Time
	Page       int
	PageSize   int
}

// ListDecisions returns paginated, filtered risk decisions and the total count.
func (r *Reader) ListDecisions(ctx context.Context, params ListDecisionsParams) ([]DecisionRow, int, error) {
	conditions := []string{"tenant_id = @tenant_id"}
	args := []any{
		clickhouse.Named("tenant_id", params.TenantID),
	}

	if params.AccountID != nil {
		conditions = append(conditions, "account_id = @account_id")
		args = append(args, clickhouse.Named("account_id", *params.AccountID))
	}
	if params.Decision != nil {
		conditions = append(conditions, "decision = @decision")
		args = append(args, clickhouse.Named("decision", *params.Decision))
	}
	if params.Channel != nil {
		conditions = append(conditions, "channel = @channel")
		args = append(args, clickhouse.Named("channel", *params.Channel))
	}
	if params.ReasonCode != nil {
		conditions = append(conditions, "has(reason_codes, @reason_code)")
		args = append(args, clickhouse.Named("reason_code", *params.ReasonCode))
	}
	if params.StartTime != nil {
		conditions = append(conditions, "timestamp >= @start_time")
		args = append(args, clickhouse.Named("start_time", *params.StartTime))
	}
	if params.EndTime != nil {
		conditions = append(conditions, "timestamp <= @end_time")
		args = append(args, clickhouse.Named("end_time", *params.EndTime))
	}

	where := strings.Join(conditions, " AND ")
	offset := (params.Page - 1) * params.PageSize

	// Count query
	var total uint64
	countQuery := fmt.Sprintf("SELECT count() FROM risk_decisions WHERE %s", where)
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListDecisions count: %w", err)
	}

	// Data query
	dataQuery := fmt.Sprintf(
		"SELECT request_id, tenant_id, event_id, account_id, timestamp, channel, "+
			"decision, composite_score, confidence, reason_codes, "+
			"layer_names, layer_scores, layer_confidences, latency_ms "+
			"FROM risk_decisions WHERE %s "+
			"ORDER BY timestamp DESC "+
			"LIMIT @limit OFFSET @offset",
		where,
	)
	args = append(args,
		clickhouse.Named("limit", uint32(params.PageSize)),
		clickhouse.Named("offset", uint32(offset)),
	)

	rows, err := r.conn.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListDecisions query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decisions []DecisionRow
	for rows.Next() {
		var d DecisionRow
		if err := rows.Scan(
			&d.RequestID, &d.TenantID, &d.EventID, &d.AccountID,
			&d.Timestamp, &d.Channel,
			&d.Decision, &d.CompositeScore, &d.Confidence, &d.ReasonCodes,
			&d.LayerNames, &d.LayerScores, &d.LayerConfidences, &d.LatencyMs,
		); err != nil {
			return nil, 0, fmt.Errorf("ListDecisions scan: %w", err)
		}
		decisions = append(decisions, d)
	}

	return decisions, int(total), rows.Err()
}

// GetDecision returns a single decision by tenant and event ID, or nil if not found.
func (r *Reader) GetDecision(ctx context.Context, tenantID, eventID string) (*DecisionRow, error) {
	row := r.conn.QueryRow(ctx,
		"SELECT request_id, tenant_id, event_id, account_id, timestamp, channel, "+
			"decision, composite_score, confidence, reason_codes, "+
			"layer_names, layer_scores, layer_confidences, latency_ms "+
			"FROM risk_decisions "+
			"WHERE tenant_id = @tenant_id AND event_id = @event_id",
		clickhouse.Named("tenant_id", tenantID),
		clickhouse.Named("event_id", eventID),
	)

	var d DecisionRow
	if err := row.Scan(
		&d.RequestID, &d.TenantID, &d.EventID, &d.AccountID,
		&d.Timestamp, &d.Channel,
		&d.Decision, &d.CompositeScore, &d.Confidence, &d.ReasonCodes,
		&d.LayerNames, &d.LayerScores, &d.LayerConfidences, &d.LatencyMs,
	); err != nil {
		// ClickHouse doesn't return sql.ErrNoRows, so check for empty result
		return nil, fmt.Errorf("GetDecision: %w", err)
	}
	if d.RequestID == "" {
		return nil, nil
	}
	return &d, nil
}

// SummaryStats holds aggregate decision counts.
type SummaryStats struct {
	TotalDecisions int     `json:"total_decisions"`
	Allows         int     `json:"allows"`
	Challenges     int     `json:"challenges"`
	Denies         int     `json:"denies"`
	ChallengeRate  float64 `json:"challenge_rate"`
	DenyRate       float64 `json:"deny_rate"`
}

// TimeSeriesBucket holds an hourly count.
type TimeSeriesBucket struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// ReasonCount holds a reason code and its count.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// LatencyStats holds latency percentiles.
type LatencyStats struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// AccountCount holds an account_id and its count.
type AccountCount struct {
	AccountID string `json:"account_id"`
	Count     int    `json:"count"`
}

// AnalyticsResult holds all analytics aggregations.
type AnalyticsResult struct {
	Summary            SummaryStats       `json:"summary"`
	DeniesOverTime     []TimeSeriesBucket `json:"denies_over_time"`
	TopReasonCodes     []ReasonCount      `json:"top_reason_codes"`
	LatencyPercentiles LatencyStats       `json:"latency_percentiles"`
	TopFlaggedAccounts []AccountCount     `json:"top_flagged_accounts"`
}

// GetAnalytics returns aggregated analytics for a tenant over the given number of days.
func (r *Reader) GetAnalytics(ctx context.Context, tenantID string, days int) (*AnalyticsResult, error) {
	now := time.Now().UTC()
	rangeStart := now.Add(-time.Duration(days) * 24 * time.Hour)
	dayStart := now.Add(-24 * time.Hour)

	baseArgs := []any{
		clickhouse.Named("tenant_id", tenantID),
		clickhouse.Named("range_start", rangeStart),
	}

	result := &AnalyticsResult{}

	// Summary counts
	var total, allows, challenges, denies uint64
	err := r.conn.QueryRow(ctx,
		"SELECT count() as total, "+
			"countIf(decision = 'allow') as allows, "+
			"countIf(decision = 'challenge') as challenges, "+
			"countIf(decision = 'deny') as denies "+
			"FROM risk_decisions "+
			"WHERE tenant_id = @tenant_id AND timestamp >= @range_start",
		baseArgs...,
	).Scan(&total, &allows, &challenges, &denies)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics summary: %w", err)
	}
	result.Summary = SummaryStats{
		TotalDecisions: int(total),
		Allows:         int(allows),
		Challenges:     int(challenges),
		Denies:         int(denies),
	}
	if total > 0 {
		result.Summary.ChallengeRate = float64(challenges) / float64(total)
		result.Summary.DenyRate = float64(denies) / float64(total)
	}

	// Denies over time (hourly)
	dotRows, err := r.conn.Query(ctx,
		"SELECT toStartOfHour(timestamp) as hour, count() as count "+
			"FROM risk_decisions "+
			"WHERE tenant_id = @tenant_id AND decision = 'deny' "+
			"AND timestamp >= @range_start "+
			"GROUP BY hour ORDER BY hour",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics denies_over_time: %w", err)
	}
	defer func() { _ = dotRows.Close() }()
	for dotRows.Next() {
		var hour time.Time
		var count uint64
		if err := dotRows.Scan(&hour, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics denies_over_time scan: %w", err)
		}
		result.DeniesOverTime = append(result.DeniesOverTime, TimeSeriesBucket{
			Hour:  hour.Format(time.RFC3339),
			Count: int(count),
		})
	}

	// Top reason codes
	reasonRows, err := r.conn.Query(ctx,
		"SELECT arrayJoin(reason_codes) as reason, count() as count "+
			"FROM risk_decisions "+
			"WHERE tenant_id = @tenant_id AND decision IN ('deny', 'challenge') "+
			"AND timestamp >= @range_start "+
			"GROUP BY reason ORDER BY count DESC LIMIT 10",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics top_reason_codes: %w", err)
	}
	defer func() { _ = reasonRows.Close() }()
	for reasonRows.Next() {
		var reason string
		var count uint64
		if err := reasonRows.Scan(&reason, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics top_reason_codes scan: %w", err)
		}
		result.TopReasonCodes = append(result.TopReasonCodes, ReasonCount{
			Reason: reason, Count: int(count),
		})
	}

	// Latency percentiles (last 24h)
	var p50, p95, p99 float64
	err = r.conn.QueryRow(ctx,
		"SELECT quantile(0.5)(latency_ms) as p50, "+
			"quantile(0.95)(latency_ms) as p95, "+
			"quantile(0.99)(latency_ms) as p99 "+
			"FROM risk_decisions "+
			"WHERE tenant_id = @tenant_id AND timestamp >= @day_start",
		clickhouse.Named("tenant_id", tenantID),
		clickhouse.Named("day_start", dayStart),
	).Scan(&p50, &p95, &p99)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics latency: %w", err)
	}
	result.LatencyPercentiles = LatencyStats{
		P50: safeFloat(p50), P95: safeFloat(p95), P99: safeFloat(p99),
	}

	// Top flagged accounts
	acctRows, err := r.conn.Query(ctx,
		"SELECT account_id, count() as count "+
			"FROM risk_decisions "+
			"WHERE tenant_id = @tenant_id AND decision IN ('deny', 'challenge') "+
			"AND account_id != '' AND timestamp >= @range_start "+
			"GROUP BY account_id ORDER BY count DESC LIMIT 10",
		baseArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("GetAnalytics top_accounts: %w", err)
	}
	defer func() { _ = acctRows.Close() }()
	for acctRows.Next() {
		var acct string
		var count uint64
		if err := acctRows.Scan(&acct, &count); err != nil {
			return nil, fmt.Errorf("GetAnalytics top_accounts scan: %w", err)
		}
		result.TopFlaggedAccounts = append(result.TopFlaggedAccounts, AccountCount{
			AccountID: acct, Count: int(count),
		})
	}

	// Ensure slices are non-nil for JSON serialization
	if result.DeniesOverTime == nil {
		result.DeniesOverTime = []TimeSeriesBucket{}
	}
	if result.TopReasonCodes == nil {
		result.TopReasonCodes = []ReasonCount{}
	}
	if result.TopFlaggedAccounts == nil {
		result.TopFlaggedAccounts = []AccountCount{}
	}

	return result, nil
}

// safeFloat replaces NaN/Inf with 0.0.
// ClickHouse returns NaN for quantile() on empty result sets.
func safeFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0.0
	}
	return f
}
