package models

import "time"

// SystemMetrics is a lightweight snapshot of runtime counters for the
// dashboard, complementing the Prometheus scrape endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	SchedulingRuns           uint64    `json:"scheduling_runs"`
	SectionsScheduled        uint64    `json:"sections_scheduled"`
	SectionsUnscheduled      uint64    `json:"sections_unscheduled"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
