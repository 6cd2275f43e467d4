package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Counter names one of the monthly usage counters
type Counter string

const (
	Analyses              Counter = "analyses"
	Optimizations         Counter = "optimizations"
	PostsUpdated          Counter = "posts_updated"
	KeywordSuggestions    Counter = "keyword_suggestions"
	MetaTagSuggestions    Counter = "meta_tag_suggestions"
	SuggestionFallbacks   Counter = "suggestion_fallbacks"
	GenerationCacheHits   Counter = "generation_cache_hits"
	GenerationCacheMisses Counter = "generation_cache_misses"
)

// MonthlyStats represents usage for a specific month
type MonthlyStats struct {
	Analyses              int       `json:"analyses"`
	Optimizations         int       `json:"optimizations"`
	PostsUpdated          int       `json:"posts_updated"`
	KeywordSuggestions    int       `json:"keyword_suggestions"`
	MetaTagSuggestions    int       `json:"meta_tag_suggestions"`
	SuggestionFallbacks   int       `json:"suggestion_fallbacks"`
	GenerationCacheHits   int       `json:"generation_cache_hits"`
	GenerationCacheMisses int       `json:"generation_cache_misses"`
	LastUpdated           time.Time `json:"last_updated"`
}

func (m *MonthlyStats) add(c Counter, n int) bool {
	switch c {
	case Analyses:
		m.Analyses += n
	case Optimizations:
		m.Optimizations += n
	case PostsUpdated:
		m.PostsUpdated += n
	case KeywordSuggestions:
		m.KeywordSuggestions += n
	case MetaTagSuggestions:
		m.MetaTagSuggestions += n
	case SuggestionFallbacks:
		m.SuggestionFallbacks += n
	case GenerationCacheHits:
		m.GenerationCacheHits += n
	case GenerationCacheMisses:
		m.GenerationCacheMisses += n
	default:
		return false
	}
	return true
}

// Storage handles persistent storage of usage statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopped     chan struct{}
	stopOnce    sync.Once
	log         logrus.FieldLogger
	now         func() time.Time
}

// Option configures a Storage
type Option func(*Storage)

// WithLogger sets the logger used for write failures
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Storage) { s.log = l }
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Storage) { s.now = now }
}

// NewStorage creates a new statistics storage instance backed by
// dataDir/stats.json and starts its background writer.
func NewStorage(dataDir string, opts ...Option) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		log:         logrus.StandardLogger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.Unmarshal(data, &s.stats); err != nil {
		return err
	}
	if s.stats == nil {
		s.stats = make(map[string]*MonthlyStats)
	}
	for month, stats := range s.stats {
		if stats == nil {
			delete(s.stats, month)
		}
	}
	return nil
}

func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Write to temporary file first, then rename atomically
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

func (s *Storage) backgroundWriter() {
	defer close(s.stopped)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			s.saveAndLog()
		case <-ticker.C:
			s.saveAndLog()
		case <-s.done:
			return
		}
	}
}

func (s *Storage) saveAndLog() {
	if err := s.save(); err != nil {
		s.log.WithError(err).Warn("failed to persist usage statistics")
	}
}

func (s *Storage) currentMonth() string {
	return s.now().Format("2006-01")
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

// Increment adds n to the counter for the current month. It is safe to call
// on a nil Storage, which counts nothing.
func (s *Storage) Increment(c Counter, n int) {
	if s == nil || n == 0 {
		return
	}

	month := s.currentMonth()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}

	if !stats.add(c, n) {
		s.log.WithField("counter", string(c)).Warn("unknown usage counter")
		return
	}
	stats.LastUpdated = s.now()

	// Request a write if enough time has passed
	if time.Since(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = time.Now()
	}
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	if s == nil {
		return MonthlyStats{}
	}
	month := s.currentMonth()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[month]; exists {
		return *stats
	}
	return MonthlyStats{}
}

// Cleanup removes statistics older than retainMonths, counting the current
// month as the first.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}

	now := s.now()
	keep := make(map[string]bool, retainMonths)
	for i := 0; i < retainMonths; i++ {
		keep[now.AddDate(0, -i, 0).Format("2006-01")] = true
	}

	s.mutex.Lock()
	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()

	s.log.WithField("months", retainMonths).Debug("pruned usage statistics")
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return *stats, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns all months that have statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Shutdown stops the background writer and flushes to disk one last time.
func (s *Storage) Shutdown() error {
	if s == nil {
		return nil
	}
	s.stopOnce.Do(func() {
		close(s.done)
	})
	<-s.stopped
	return s.save()
}
