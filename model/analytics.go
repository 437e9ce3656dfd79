package model

import "time"

// SearchEvent represents a single prefix query for analytics tracking
type SearchEvent struct {
	IndexName    string        `json:"index_name"`
	Query        string        `json:"query"`
	ResponseTime time.Duration `json:"response_time"`
	ResultCount  int           `json:"result_count"`
	Timestamp    time.Time     `json:"timestamp"`
}

// PopularSearch represents aggregated data for a query string
type PopularSearch struct {
	Query       string `json:"query"`
	SearchCount int    `json:"search_count"`
}

// IndexUsage represents build size and query volume for one index
type IndexUsage struct {
	IndexName       string `json:"index_name"`
	Documents       int    `json:"documents"`
	Suffixes        int    `json:"suffixes"`
	CorpusBytes     int    `json:"corpus_bytes"`
	SearchCount     int    `json:"search_count"`
	ZeroHitSearches int    `json:"zero_hit_searches"`
}

// ResponseTimeDistribution represents response time distribution buckets
type ResponseTimeDistribution struct {
	Bucket0To25ms     int     `json:"bucket_0_25ms"`
	Bucket25To50ms    int     `json:"bucket_25_50ms"`
	Bucket50To100ms   int     `json:"bucket_50_100ms"`
	Bucket100msPlus   int     `json:"bucket_100ms_plus"`
	Percentage0To25   float64 `json:"percentage_0_25"`
	Percentage25To50  float64 `json:"percentage_25_50"`
	Percentage50To100 float64 `json:"percentage_50_100"`
	Percentage100Plus float64 `json:"percentage_100_plus"`
}

// AnalyticsDashboard summarizes query traffic over the last 24 hours
type AnalyticsDashboard struct {
	TotalSearches   int   `json:"total_searches"`
	ZeroHitSearches int   `json:"zero_hit_searches"`
	AvgResponseTime int64 `json:"avg_response_time"` // in microseconds
	ActiveIndexes   int   `json:"active_indexes"`
	TotalDocuments  int   `json:"total_documents"`
	TotalSuffixes   int   `json:"total_suffixes"`

	PopularSearches          []PopularSearch          `json:"popular_searches"`
	ZeroHitQueries           []PopularSearch          `json:"zero_hit_queries"`
	IndexUsage               []IndexUsage             `json:"index_usage"`
	ResponseTimeDistribution ResponseTimeDistribution `json:"response_time_distribution"`
}
