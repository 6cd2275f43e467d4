package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Environment variable name for controlling statistics visibility
const ENV_DEV_MODE = "DEV_MODE"

// Statistics tracks HTTP traffic against the scoring endpoints
type Statistics struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"`   // IP -> Last Visit Time
	AnalysisRequests int                  `json:"analysisRequests"` // analyze and optimize calls
	TotalRequests    int                  `json:"totalRequests"`
	ErrorCount       int                  `json:"errorCount"`
	PopularPosts     map[string]int       `json:"popularPosts"` // post id -> analyses
	AverageLoadTime  float64              `json:"averageLoadTime"`
	TotalLoadTime    float64              `json:"-"`
	RequestCount     int                  `json:"-"`
	LastPersisted    time.Time            `json:"lastPersisted"`

	path  string
	mutex sync.RWMutex
}

// NewStatistics creates traffic statistics persisted at path and loads any
// previous snapshot. An empty path disables persistence.
func NewStatistics(path string) (*Statistics, error) {
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		PopularPosts:   make(map[string]int),
		LastPersisted:  time.Now(),
		path:           path,
	}

	if err := s.Load(); err != nil {
		return s, err
	}
	return s, nil
}

// TrackVisitor records a request from ip
func (s *Statistics) TrackVisitor(ip string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = time.Now()
	s.TotalRequests++
}

// postKey extracts the post id from an analyze or optimize path, e.g.
// "/api/seo/analyze/12" -> "12"
func postKey(path string) string {
	path = strings.TrimSuffix(path, "/")
	for _, prefix := range []string{"/api/seo/analyze/", "/api/seo/optimize/"} {
		if strings.HasPrefix(path, prefix) {
			return strings.TrimPrefix(path, prefix)
		}
	}
	return ""
}

// IsAnalysisPath reports whether path addresses a single post's analysis
func IsAnalysisPath(path string) bool {
	return postKey(path) != ""
}

// TrackAnalysis records an analysis request for the post addressed by path
func (s *Statistics) TrackAnalysis(path string, loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AnalysisRequests++

	if key := postKey(path); key != "" && !hasError {
		s.PopularPosts[key]++
	}

	if hasError {
		s.ErrorCount++
	}

	s.TotalLoadTime += loadTime
	s.RequestCount++
	s.AverageLoadTime = s.TotalLoadTime / float64(s.RequestCount)
}

// uniqueVisitors counts visitors in the last 24 hours; callers hold the lock
func (s *Statistics) uniqueVisitors() int {
	count := 0
	cutoff := time.Now().Add(-24 * time.Hour)

	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}

	return count
}

// GetUniqueVisitorsCount returns the number of unique visitors in the last 24 hours
func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitors()
}

// PostCount is one entry of the popular-posts ranking
type PostCount struct {
	PostID string `json:"postId"`
	Count  int    `json:"count"`
}

func (s *Statistics) popularPosts(n int) []PostCount {
	ranked := make([]PostCount, 0, len(s.PopularPosts))
	for id, count := range s.PopularPosts {
		ranked = append(ranked, PostCount{PostID: id, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].PostID < ranked[j].PostID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// GetPopularPosts returns the n most analysed posts, most analysed first
func (s *Statistics) GetPopularPosts(n int) []PostCount {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.popularPosts(n)
}

func (s *Statistics) errorRate() float64 {
	if s.AnalysisRequests == 0 {
		return 0
	}
	return (float64(s.ErrorCount) / float64(s.AnalysisRequests)) * 100
}

// GetErrorRate returns the error rate of analysis requests as a percentage
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRate()
}

// Save persists the statistics to their file
func (s *Statistics) Save() error {
	if s.path == "" {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = time.Now()

	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("could not create statistics file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(s); err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}

	return nil
}

// Load reads the statistics from their file. A missing file is not an error.
func (s *Statistics) Load() error {
	if s.path == "" {
		return nil
	}

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}
	defer file.Close()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.NewDecoder(file).Decode(s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.PopularPosts == nil {
		s.PopularPosts = make(map[string]int)
	}

	return nil
}

// GetStatistics returns a summary of the traffic. Popular posts are only
// included in development mode.
func (s *Statistics) GetStatistics() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	summary := map[string]interface{}{
		"uniqueVisitors24h": s.uniqueVisitors(),
		"totalRequests":     s.TotalRequests,
		"analysisRequests":  s.AnalysisRequests,
		"errorRate":         s.errorRate(),
		"averageLoadTime":   s.AverageLoadTime,
	}

	if os.Getenv(ENV_DEV_MODE) == "true" {
		summary["popularPosts"] = s.popularPosts(5)
	}

	return summary
}

// Requests returns the total number of tracked requests
func (s *Statistics) Requests() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.TotalRequests
}
