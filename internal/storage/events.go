package storage

import "time"

// DecisionWriter is the interface for persisting risk decisions.
// Write() must NEVER block the caller.
type DecisionWriter interface {
	Write(event *DecisionEvent)
	Close()
}

// DecisionEvent represents a single risk decision to be persisted.
type DecisionEvent struct {
	RequestID        string
	TenantID         string
	EventID          string
	AccountID        string
	Timestamp        time.Time
	Channel          string
	Decision         string
	CompositeScore   float64
	Confidence       float64
	ReasonCodes      []string
	LayerNames       []string
	LayerScores      []float64
	LayerConfidences []float64
	LatencyMs        float64
}
