// Package telemetry provides local, aggregate comparison telemetry.
// Only counts and histograms are kept; compared texts are never stored.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// =============================================================================
// Latency Buckets
// =============================================================================

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// =============================================================================
// Score Buckets
// =============================================================================

// ScoreBucket is a coarse band of similarity scores.
type ScoreBucket string

const (
	ScoreNegative ScoreBucket = "negative" // <0
	ScoreLow      ScoreBucket = "low"      // 0-0.25
	ScoreMedium   ScoreBucket = "medium"   // 0.25-0.5
	ScoreHigh     ScoreBucket = "high"     // 0.5-0.75
	ScoreNear     ScoreBucket = "near"     // >=0.75
)

// ScoreToBucket converts a score to its band.
func ScoreToBucket(score float64) ScoreBucket {
	switch {
	case score < 0:
		return ScoreNegative
	case score < 0.25:
		return ScoreLow
	case score < 0.5:
		return ScoreMedium
	case score < 0.75:
		return ScoreHigh
	default:
		return ScoreNear
	}
}

// =============================================================================
// Comparison Event
// =============================================================================

// ComparisonEvent describes one finished comparison.
type ComparisonEvent struct {
	Method    string
	Score     float64
	Latency   time.Duration
	PairHash  string // from HashPair; empty disables repeat tracking
	ErrorCode string // empty on success
	Timestamp time.Time
}

// Failed returns true if the comparison returned an error.
func (e ComparisonEvent) Failed() bool {
	return e.ErrorCode != ""
}

// HashPair returns an order-independent digest of a text pair and method.
// Swapping the texts yields the same hash since the score is symmetric.
func HashPair(method, text1, text2 string) string {
	h1 := sha256.Sum256([]byte(text1))
	h2 := sha256.Sum256([]byte(text2))
	a, b := hex.EncodeToString(h1[:]), hex.EncodeToString(h2[:])
	if b < a {
		a, b = b, a
	}
	sum := sha256.Sum256([]byte(method + "\x00" + a + "\x00" + b))
	return hex.EncodeToString(sum[:16])
}

// =============================================================================
// Snapshot
// =============================================================================

// MethodStats are the per-method aggregates.
type MethodStats struct {
	Count  int64 `json:"count"`
	Errors int64 `json:"errors"`
}

// Snapshot is an immutable view of the collected metrics.
type Snapshot struct {
	Methods             map[string]MethodStats  `json:"methods"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	ScoreDistribution   map[ScoreBucket]int64   `json:"score_distribution"`
	RecentErrors        []string                `json:"recent_errors"`
	TotalComparisons    int64                   `json:"total_comparisons"`
	ErrorCount          int64                   `json:"error_count"`
	RepeatCount         int64                   `json:"repeat_count"`
	RepeatRate          float64                 `json:"repeat_rate"`
	Since               time.Time               `json:"since"`
}

// ErrorPercentage returns the percentage of failed comparisons.
func (s *Snapshot) ErrorPercentage() float64 {
	if s.TotalComparisons == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.TotalComparisons) * 100
}

// =============================================================================
// Store (Interface)
// =============================================================================

// Store persists daily aggregates. Implementations add to existing rows.
type Store interface {
	// SaveMethodCounts adds per-method counts for date.
	SaveMethodCounts(date string, counts map[string]MethodStats) error

	// GetMethodCounts sums per-method counts over a date range.
	GetMethodCounts(from, to string) (map[string]MethodStats, error)

	// SaveLatencyCounts adds latency histogram counts for date.
	SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error

	// GetLatencyCounts sums the latency histogram over a date range.
	GetLatencyCounts(from, to string) (map[LatencyBucket]int64, error)

	// Close releases resources.
	Close() error
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the metrics collector.
type Config struct {
	RecentErrorsCapacity int           // Max error codes kept (default: 20)
	RecentPairsCapacity  int           // Pair hashes tracked for repeats (default: 500)
	FlushInterval        time.Duration // How often to flush to store (default: 60s, 0 = no auto-flush)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RecentErrorsCapacity: 20,
		RecentPairsCapacity:  500,
		FlushInterval:        60 * time.Second,
	}
}

// =============================================================================
// Metrics
// =============================================================================

// Metrics collects comparison telemetry. Safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	methods      map[string]MethodStats
	latencies    map[LatencyBucket]int64
	scores       map[ScoreBucket]int64
	recentErrors *CircularBuffer[string]
	recentPairs  *lru.Cache[string, struct{}]
	total        int64
	errors       int64
	repeats      int64
	startTime    time.Time

	// Not yet flushed to the store
	pendingMethods   map[string]MethodStats
	pendingLatencies map[LatencyBucket]int64

	store       Store
	config      Config
	flushTicker *time.Ticker
	stopCh      chan struct{}
	closed      bool
}

// New creates a collector with default configuration.
// If store is nil, metrics are only kept in memory.
func New(store Store) *Metrics {
	return NewWithConfig(store, DefaultConfig())
}

// NewWithConfig creates a collector with custom configuration.
func NewWithConfig(store Store, cfg Config) *Metrics {
	if cfg.RecentErrorsCapacity <= 0 {
		cfg.RecentErrorsCapacity = 20
	}
	if cfg.RecentPairsCapacity <= 0 {
		cfg.RecentPairsCapacity = 500
	}

	recentPairs, _ := lru.New[string, struct{}](cfg.RecentPairsCapacity)

	m := &Metrics{
		methods:          make(map[string]MethodStats),
		latencies:        make(map[LatencyBucket]int64),
		scores:           make(map[ScoreBucket]int64),
		recentErrors:     NewCircularBuffer[string](cfg.RecentErrorsCapacity),
		recentPairs:      recentPairs,
		startTime:        time.Now(),
		pendingMethods:   make(map[string]MethodStats),
		pendingLatencies: make(map[LatencyBucket]int64),
		store:            store,
		config:           cfg,
		stopCh:           make(chan struct{}),
	}

	if cfg.FlushInterval > 0 && store != nil {
		m.flushTicker = time.NewTicker(cfg.FlushInterval)
		go m.flushLoop()
	}

	return m
}

func (m *Metrics) flushLoop() {
	for {
		select {
		case <-m.flushTicker.C:
			_ = m.Flush()
		case <-m.stopCh:
			return
		}
	}
}

// Record captures one comparison. Non-blocking apart from the mutex.
func (m *Metrics) Record(event ComparisonEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.total++
	stats := m.methods[event.Method]
	pending := m.pendingMethods[event.Method]
	stats.Count++
	pending.Count++

	if event.Failed() {
		stats.Errors++
		pending.Errors++
		m.errors++
		m.recentErrors.Add(event.Method + ": " + event.ErrorCode)
	} else {
		m.scores[ScoreToBucket(event.Score)]++
	}
	m.methods[event.Method] = stats
	m.pendingMethods[event.Method] = pending

	bucket := LatencyToBucket(event.Latency)
	m.latencies[bucket]++
	m.pendingLatencies[bucket]++

	if event.PairHash != "" {
		if _, seen := m.recentPairs.Get(event.PairHash); seen {
			m.repeats++
		}
		m.recentPairs.Add(event.PairHash, struct{}{})
	}
}

// Snapshot returns current metrics for reporting.
func (m *Metrics) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	methods := make(map[string]MethodStats, len(m.methods))
	for k, v := range m.methods {
		methods[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}
	scores := make(map[ScoreBucket]int64, len(m.scores))
	for k, v := range m.scores {
		scores[k] = v
	}

	var repeatRate float64
	if m.total > 0 {
		repeatRate = float64(m.repeats) / float64(m.total)
	}

	return &Snapshot{
		Methods:             methods,
		LatencyDistribution: latencies,
		ScoreDistribution:   scores,
		RecentErrors:        m.recentErrors.Items(),
		TotalComparisons:    m.total,
		ErrorCount:          m.errors,
		RepeatCount:         m.repeats,
		RepeatRate:          repeatRate,
		Since:               m.startTime,
	}
}

// Flush adds the counts recorded since the last flush to the store.
// Safe to call even if no store is configured.
func (m *Metrics) Flush() error {
	if m.store == nil {
		return nil
	}

	m.mu.Lock()
	methods := m.pendingMethods
	latencies := m.pendingLatencies
	m.pendingMethods = make(map[string]MethodStats)
	m.pendingLatencies = make(map[LatencyBucket]int64)
	m.mu.Unlock()

	if len(methods) == 0 && len(latencies) == 0 {
		return nil
	}

	today := time.Now().Format("2006-01-02")

	if err := m.store.SaveMethodCounts(today, methods); err != nil {
		m.restore(methods, latencies)
		return err
	}
	if err := m.store.SaveLatencyCounts(today, latencies); err != nil {
		m.mu.Lock()
		for k, v := range latencies {
			m.pendingLatencies[k] += v
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// restore puts unflushed counts back so the next flush retries them.
func (m *Metrics) restore(methods map[string]MethodStats, latencies map[LatencyBucket]int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range methods {
		p := m.pendingMethods[k]
		p.Count += v.Count
		p.Errors += v.Errors
		m.pendingMethods[k] = p
	}
	for k, v := range latencies {
		m.pendingLatencies[k] += v
	}
}

// Close stops the flush loop, flushes and closes the store.
func (m *Metrics) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.flushTicker != nil {
		m.flushTicker.Stop()
		close(m.stopCh)
	}

	if err := m.Flush(); err != nil {
		return err
	}
	if m.store != nil {
		return m.store.Close()
	}
	return nil
}
