package models

import "time"

// SystemMetrics is the in-process view of the instrumentation counters.
type SystemMetrics struct {
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	StoreFallbacks           uint64            `json:"store_fallbacks"`
	AuthOutcomes             map[string]uint64 `json:"auth_outcomes"`
	NotificationsSent        uint64            `json:"notifications_sent"`
	NotificationsFailed      uint64            `json:"notifications_failed"`
	DatabaseAvailable        bool              `json:"database_available"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}

// PlacementOverview is the admin dashboard roll-up.
type PlacementOverview struct {
	Students     int                  `json:"students"`
	Placed       int                  `json:"placed"`
	Unplaced     int                  `json:"unplaced"`
	PlacementPct float64              `json:"placementRate"`
	ByDepartment map[string]int       `json:"studentsByDepartment"`
	Internships  InternshipStats      `json:"internships"`
	Applications ApplicationAnalytics `json:"applications"`
	IPPs         map[string]int       `json:"ipps"`
	GeneratedAt  time.Time            `json:"generatedAt"`
}
