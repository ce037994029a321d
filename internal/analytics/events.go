// Package analytics records search events. Events are aggregated in process
// for the stats endpoint and, when a publisher is configured, shipped to
// Kafka in batches.
package analytics

import "time"

type SearchEvent struct {
	Mode      string    `json:"mode"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms,omitempty"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
