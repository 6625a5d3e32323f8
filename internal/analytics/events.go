package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventIndexBuild EventType = "index_build"
	EventIndexError EventType = "index_error"
)

// SearchEvent describes one executed search. CacheHit reports whether the
// index answered from its query cache.
type SearchEvent struct {
	Type         EventType `json:"type"`
	Query        string    `json:"query"`
	Returned     int       `json:"returned"`
	LatencyMs    float64   `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	Fuzzy        bool      `json:"fuzzy"`
	SearchInTags bool      `json:"search_in_tags"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
}

// IndexEvent describes one index rebuild.
type IndexEvent struct {
	Type       EventType `json:"type"`
	Documents  int       `json:"documents"`
	Terms      int       `json:"terms"`
	Generation uint64    `json:"generation"`
	LatencyMs  float64   `json:"latency_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
