package feedback

import (
	"context"
	"sync"

	"github.com/seejho/etude/model"
)

// Mock replays canned responses round-robin and counts calls.
type Mock struct {
	mu                  sync.Mutex
	comparisonResponses []string
	analysisResponses   []string
	comparisonCalls     int
	analysisCalls       int
}

var _ Client = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{
		comparisonResponses: []string{
			"Great job! Your performance shows excellent progress. Keep practicing the timing on measures 3-4.",
		},
		analysisResponses: []string{
			"Nice playing! The notes are clear and the tempo is consistent. Work on your vibrato technique.",
		},
	}
}

// WithComparisonResponse replaces the canned comparison responses.
// Called with none it keeps the defaults, so the rotation below always
// has something to serve.
func (m *Mock) WithComparisonResponse(responses ...string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(responses) > 0 {
		m.comparisonResponses = responses
	}
	return m
}

// WithAnalysisResponse replaces the canned analysis responses. Called
// with none it keeps the defaults.
func (m *Mock) WithAnalysisResponse(responses ...string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(responses) > 0 {
		m.analysisResponses = responses
	}
	return m
}

func (m *Mock) Comparison(context.Context, model.ComparisonMetrics, string, string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.comparisonResponses[m.comparisonCalls%len(m.comparisonResponses)]
	m.comparisonCalls++
	return res, nil
}

func (m *Mock) Analysis(context.Context, model.FeatureStream, []model.NoteEvent, string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.analysisResponses[m.analysisCalls%len(m.analysisResponses)]
	m.analysisCalls++
	return res, nil
}

func (m *Mock) ComparisonCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.comparisonCalls
}

func (m *Mock) AnalysisCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analysisCalls
}
