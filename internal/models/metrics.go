package models

import "time"

// SystemMetrics is a point-in-time summary of the process counters.
type SystemMetrics struct {
	CacheHitRatio               float64   `json:"cacheHitRatio"`
	CacheHits                   uint64    `json:"cacheHits"`
	CacheMisses                 uint64    `json:"cacheMisses"`
	RequestsTotal               uint64    `json:"requestsTotal"`
	AverageRequestDurationMs    float64   `json:"averageRequestDurationMs"`
	StoreOperations             uint64    `json:"storeOperations"`
	AverageStoreOperationTimeMs float64   `json:"averageStoreOperationTimeMs"`
	ReportsFinished             uint64    `json:"reportsFinished"`
	ReportsFailed               uint64    `json:"reportsFailed"`
	Goroutines                  int       `json:"goroutines"`
	GeneratedAt                 time.Time `json:"generatedAt"`
}
