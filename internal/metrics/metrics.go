package metrics

import (
	"sort"
	"sync"
	"time"
)

// Metrics aggregates per-backend counters keyed by backend id.
type Metrics struct {
	mutex         sync.RWMutex
	requests      map[string]int64
	selections    map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	healthStatus  map[string]bool
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                     `json:"total_requests"`
	Uptime        time.Duration             `json:"uptime"`
	Strategy      string                    `json:"strategy"`
	Backends      map[string]BackendMetrics `json:"backends"`
}

type BackendMetrics struct {
	Requests    int64         `json:"requests"`
	Selections  int64         `json:"selections"`
	Healthy     bool          `json:"healthy"`
	AvgResponse time.Duration `json:"avg_response"`
	P95Response time.Duration `json:"p95_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:      make(map[string]int64),
		selections:    make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		healthStatus:  make(map[string]bool),
		startTime:     time.Now(),
	}
}

func (m *Metrics) IncrementRequests(backendID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[backendID]++
}

func (m *Metrics) RecordSelection(backendID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.selections[backendID]++
}

func (m *Metrics) RecordResponse(backendID string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[backendID] = append(m.responseTimes[backendID], duration)

	// Keep a bounded window per backend
	if len(m.responseTimes[backendID]) > 1000 {
		m.responseTimes[backendID] = m.responseTimes[backendID][1:]
	}

	if m.statusCodes[backendID] == nil {
		m.statusCodes[backendID] = make(map[int]int64)
	}
	m.statusCodes[backendID][statusCode]++
}

func (m *Metrics) UpdateHealthStatus(backendID string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[backendID] = healthy
}

func (m *Metrics) Snapshot(strategy string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:   time.Since(m.startTime),
		Strategy: strategy,
		Backends: make(map[string]BackendMetrics),
	}

	ids := make(map[string]bool)
	for id := range m.requests {
		ids[id] = true
	}
	for id := range m.selections {
		ids[id] = true
	}
	for id := range m.responseTimes {
		ids[id] = true
	}
	for id := range m.healthStatus {
		ids[id] = true
	}

	for id := range ids {
		snap.TotalRequests += m.requests[id]

		bm := BackendMetrics{
			Requests:    m.requests[id],
			Selections:  m.selections[id],
			Healthy:     m.healthStatus[id],
			StatusCodes: m.statusCodes[id],
		}

		durations := m.responseTimes[id]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

			bm.AvgResponse = average(sorted)
			bm.P95Response = percentile(sorted, 0.95)
		}

		snap.Backends[id] = bm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
