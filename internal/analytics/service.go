// Package analytics records prefix queries and summarizes them per index.
package analytics

import (
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/gcbaptista/go-prefix-index/internal/persistence"
	"github.com/gcbaptista/go-prefix-index/model"
	"github.com/gcbaptista/go-prefix-index/services"
)

const (
	maxEventsToKeep = 10000 // Keep last 10k events for performance
	topQueries      = 5
)

// Service implements analytics tracking and reporting
type Service struct {
	mutex        sync.RWMutex
	saveMutex    sync.Mutex
	events       []model.SearchEvent
	indexManager services.IndexManager
	dataFilePath string // empty keeps events in memory only
	now          func() time.Time
}

// NewService creates a new analytics service. Events are loaded from and saved
// to dataFilePath when it is not empty.
func NewService(indexManager services.IndexManager, dataFilePath string) *Service {
	service := &Service{
		events:       make([]model.SearchEvent, 0),
		indexManager: indexManager,
		dataFilePath: dataFilePath,
		now:          time.Now,
	}

	if dataFilePath != "" {
		if err := persistence.LoadGob(dataFilePath, &service.events); err != nil && err != os.ErrNotExist {
			log.Printf("Warning: Failed to load analytics data: %v", err)
		}
	}

	return service
}

// TrackSearchEvent records a new search event
func (s *Service) TrackSearchEvent(event model.SearchEvent) {
	s.mutex.Lock()
	event.Timestamp = s.now()
	s.events = append(s.events, event)
	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
	s.mutex.Unlock()

	if s.dataFilePath != "" {
		go func() {
			if err := s.Save(); err != nil {
				log.Printf("Warning: Failed to save analytics data: %v", err)
			}
		}()
	}
}

// Save writes the retained events to the data file.
func (s *Service) Save() error {
	if s.dataFilePath == "" {
		return nil
	}
	s.saveMutex.Lock()
	defer s.saveMutex.Unlock()

	s.mutex.RLock()
	events := make([]model.SearchEvent, len(s.events))
	copy(events, s.events)
	s.mutex.RUnlock()

	return persistence.SaveGob(s.dataFilePath, events)
}

// GetDashboardData summarizes the events of the last 24 hours
func (s *Service) GetDashboardData() model.AnalyticsDashboard {
	s.mutex.RLock()
	recent := filterEventsByTime(s.events, s.now().Add(-24*time.Hour))
	s.mutex.RUnlock()

	var zeroHit []model.SearchEvent
	for _, event := range recent {
		if event.ResultCount == 0 {
			zeroHit = append(zeroHit, event)
		}
	}

	dashboard := model.AnalyticsDashboard{
		TotalSearches:            len(recent),
		ZeroHitSearches:          len(zeroHit),
		AvgResponseTime:          avgResponseTime(recent),
		PopularSearches:          popularSearches(recent),
		ZeroHitQueries:           popularSearches(zeroHit),
		IndexUsage:               s.indexUsage(recent),
		ResponseTimeDistribution: responseTimeDistribution(recent),
	}
	for _, usage := range dashboard.IndexUsage {
		dashboard.ActiveIndexes++
		dashboard.TotalDocuments += usage.Documents
		dashboard.TotalSuffixes += usage.Suffixes
	}
	return dashboard
}

// filterEventsByTime returns events after the given time
func filterEventsByTime(events []model.SearchEvent, after time.Time) []model.SearchEvent {
	var filtered []model.SearchEvent
	for _, event := range events {
		if event.Timestamp.After(after) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// avgResponseTime returns the mean response time in microseconds
func avgResponseTime(events []model.SearchEvent) int64 {
	if len(events) == 0 {
		return 0
	}

	var total time.Duration
	for _, event := range events {
		total += event.ResponseTime
	}
	return (total / time.Duration(len(events))).Microseconds()
}

// popularSearches returns the most frequent queries, ties broken alphabetically
func popularSearches(events []model.SearchEvent) []model.PopularSearch {
	queryCounts := make(map[string]int)
	for _, event := range events {
		if event.Query != "" {
			queryCounts[event.Query]++
		}
	}

	popular := make([]model.PopularSearch, 0, len(queryCounts))
	for query, count := range queryCounts {
		popular = append(popular, model.PopularSearch{Query: query, SearchCount: count})
	}
	sort.Slice(popular, func(i, j int) bool {
		if popular[i].SearchCount != popular[j].SearchCount {
			return popular[i].SearchCount > popular[j].SearchCount
		}
		return popular[i].Query < popular[j].Query
	})

	if len(popular) > topQueries {
		popular = popular[:topQueries]
	}
	return popular
}

// indexUsage joins the build manifests with per-index query counts
func (s *Service) indexUsage(events []model.SearchEvent) []model.IndexUsage {
	searches := make(map[string]int)
	zeroHits := make(map[string]int)
	for _, event := range events {
		searches[event.IndexName]++
		if event.ResultCount == 0 {
			zeroHits[event.IndexName]++
		}
	}

	manifests := s.indexManager.ListIndexes()
	usage := make([]model.IndexUsage, 0, len(manifests))
	for _, manifest := range manifests {
		usage = append(usage, model.IndexUsage{
			IndexName:       manifest.Name,
			Documents:       manifest.Stats.Documents,
			Suffixes:        manifest.Stats.Suffixes,
			CorpusBytes:     manifest.Stats.CorpusBytes,
			SearchCount:     searches[manifest.Name],
			ZeroHitSearches: zeroHits[manifest.Name],
		})
	}
	return usage
}

// responseTimeDistribution buckets response times
func responseTimeDistribution(events []model.SearchEvent) model.ResponseTimeDistribution {
	dist := model.ResponseTimeDistribution{}
	total := len(events)
	if total == 0 {
		return dist
	}

	for _, event := range events {
		ms := event.ResponseTime.Milliseconds()
		switch {
		case ms <= 25:
			dist.Bucket0To25ms++
		case ms <= 50:
			dist.Bucket25To50ms++
		case ms <= 100:
			dist.Bucket50To100ms++
		default:
			dist.Bucket100msPlus++
		}
	}

	dist.Percentage0To25 = float64(dist.Bucket0To25ms) / float64(total) * 100
	dist.Percentage25To50 = float64(dist.Bucket25To50ms) / float64(total) * 100
	dist.Percentage50To100 = float64(dist.Bucket50To100ms) / float64(total) * 100
	dist.Percentage100Plus = float64(dist.Bucket100msPlus) / float64(total) * 100
	return dist
}
