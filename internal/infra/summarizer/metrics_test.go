package summarizer

import (
	"context"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMetricsRecorder records calls for assertions.
type mockMetricsRecorder struct {
	mu         sync.Mutex
	lengths    []int
	exceeded   int
	compliance []bool
	durations  []time.Duration
	requests   []string
}

func (m *mockMetricsRecorder) RecordLength(length int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lengths = append(m.lengths, length)
}

func (m *mockMetricsRecorder) RecordLimitExceeded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exceeded++
}

func (m *mockMetricsRecorder) RecordCompliance(withinLimit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compliance = append(m.compliance, withinLimit)
}

func (m *mockMetricsRecorder) RecordDuration(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = append(m.durations, duration)
}

func (m *mockMetricsRecorder) RecordRequest(provider, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, provider+":"+outcome)
}

func TestNewPrometheusSummaryMetrics_Singleton(t *testing.T) {
	metrics1 := NewPrometheusSummaryMetrics()
	metrics2 := NewPrometheusSummaryMetrics()

	require.NotNil(t, metrics1)
	assert.Same(t, metrics1, metrics2)
	assert.NotNil(t, metrics1.length)
	assert.NotNil(t, metrics1.requests)
}

func TestPrometheusSummaryMetrics_RecordRequest(t *testing.T) {
	metrics := NewPrometheusSummaryMetrics()
	counter := metrics.requests.WithLabelValues("openai", "refusal")
	before := testutil.ToFloat64(counter)

	metrics.RecordRequest("openai", "refusal")
	metrics.RecordRequest("openai", "refusal")

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestPrometheusSummaryMetrics_RecordCompliance(t *testing.T) {
	metrics := NewPrometheusSummaryMetrics()

	metrics.RecordCompliance(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.compliance))

	metrics.RecordCompliance(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.compliance))
}

func TestPrometheusSummaryMetrics_ConcurrentAccess(t *testing.T) {
	metrics := NewPrometheusSummaryMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.RecordLength(500)
			metrics.RecordLimitExceeded()
			metrics.RecordCompliance(true)
			metrics.RecordDuration(time.Second)
			metrics.RecordRequest("anthropic", "success")
		}()
	}
	wg.Wait()
}

func TestRecordSummary(t *testing.T) {
	tests := []struct {
		name           string
		summary        string
		target         int
		wantCompliance []bool
		wantExceeded   int
	}{
		{
			name:           "within target",
			summary:        "short",
			target:         10,
			wantCompliance: []bool{true},
		},
		{
			name:           "over target",
			summary:        "this summary is too long",
			target:         5,
			wantCompliance: []bool{false},
			wantExceeded:   1,
		},
		{
			name:    "no target",
			summary: "anything",
			target:  0,
		},
		{
			name:           "counts runes, not bytes",
			summary:        "日本語",
			target:         3,
			wantCompliance: []bool{true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &mockMetricsRecorder{}

			recordSummary(context.Background(), recorder, tt.summary, tt.target, 2*time.Second)

			require.Len(t, recorder.lengths, 1)
			assert.Equal(t, utf8.RuneCountInString(tt.summary), recorder.lengths[0])
			assert.Equal(t, tt.wantCompliance, recorder.compliance)
			assert.Equal(t, tt.wantExceeded, recorder.exceeded)
			assert.Equal(t, []time.Duration{2 * time.Second}, recorder.durations)
		})
	}
}

func TestPrometheusSummaryMetrics_ImplementsInterface(t *testing.T) {
	var _ SummaryMetricsRecorder = NewPrometheusSummaryMetrics()
	var _ SummaryMetricsRecorder = &mockMetricsRecorder{}
}
