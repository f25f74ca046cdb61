//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/seejho/etude/model"
	"github.com/seejho/etude/server"
	"github.com/seejho/etude/store"
)

var ts *httptest.Server

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "etude-e2e")
	if err != nil {
		panic(err.Error())
	}
	st, err := store.Open(dir)
	if err != nil {
		panic(err.Error())
	}
	ts = httptest.NewServer(server.New(zap.NewNop(), st, nil).Router())

	exitVal := m.Run()

	ts.Close()
	st.Close()
	os.RemoveAll(dir)
	os.Exit(exitVal)
}

// referenceStream arpeggiates A4, C5, E5 as three notes.
func referenceStream() model.FeatureStream {
	return model.FeatureStream{
		PitchHz: []float64{
			440, 440, 440,
			523.25, 523.25, 523.25,
			659.25, 659.25, 659.25,
		},
		OnsetTimes: []float64{0, 0.15, 0.3, 0.5, 0.65, 0.8, 1.0, 1.15, 1.3},
	}
}

// playerStream is the same take with the second note played wrong, a
// D5 where the reference has C5.
func playerStream() model.FeatureStream {
	fs := referenceStream()
	for i := 3; i < 6; i++ {
		fs.PitchHz[i] = 587.33
	}
	return fs
}

func postJSON(path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return http.Post(ts.URL+path, "application/json", bytes.NewReader(raw))
}

func TestCompareFlowE2E(t *testing.T) {
	assert := assert.New(t)

	resp, err := postJSON("/api/v1/compare", model.CompareRequest{
		Reference:     referenceStream(),
		Player:        playerStream(),
		ReferenceName: "etude no. 1",
		PlayerName:    "take 3",
	})
	if err != nil {
		panic(err.Error())
	}
	defer resp.Body.Close()
	assert.Equal(200, resp.StatusCode)

	var compared model.CompareResponse
	if err := json.NewDecoder(resp.Body).Decode(&compared); err != nil {
		panic(err.Error())
	}
	assert.NotEmpty(compared.ID)
	assert.InDelta(0.65, compared.Metrics.OverallSimilarity, 0.01)
	assert.InDelta(2.0/3.0, compared.Metrics.NoteAccuracy, 1e-9)
	assert.Equal(0.0, compared.Metrics.PitchAccuracy)
	assert.Equal(1.0, compared.Metrics.TimingAccuracy)
	assert.Contains(compared.Metrics.MissedNotes, "C5 at 0.50s")
	assert.Contains(compared.Metrics.ExtraNotes, "D5 at 0.50s")
	assert.Len(compared.Metrics.PitchErrors, 1)
	assert.Contains(string(compared.Report), "2.0-optimized")

	// Stored and retrievable.
	got, err := http.Get(ts.URL + "/api/v1/submissions/" + compared.ID)
	if err != nil {
		panic(err.Error())
	}
	defer got.Body.Close()
	assert.Equal(200, got.StatusCode)

	var sub model.Submission
	if err := json.NewDecoder(got.Body).Decode(&sub); err != nil {
		panic(err.Error())
	}
	assert.Equal("take 3", sub.PlayerName)
	assert.Equal("etude no. 1", sub.ReferenceName)
	assert.Equal(compared.Metrics.OverallSimilarity, sub.Metrics.OverallSimilarity)

	// And listed.
	list, err := http.Get(ts.URL + "/api/v1/submissions")
	if err != nil {
		panic(err.Error())
	}
	defer list.Body.Close()

	var summaries []model.SubmissionSummary
	if err := json.NewDecoder(list.Body).Decode(&summaries); err != nil {
		panic(err.Error())
	}
	assert.Len(summaries, 1)
	assert.Equal(compared.ID, summaries[0].ID)
}

func TestAnalyzeFlowE2E(t *testing.T) {
	assert := assert.New(t)

	resp, err := postJSON("/api/v1/analyze", model.AnalyzeRequest{
		Player: referenceStream(),
		Name:   "warmup scales",
	})
	if err != nil {
		panic(err.Error())
	}
	defer resp.Body.Close()
	assert.Equal(200, resp.StatusCode)

	var analyzed model.AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&analyzed); err != nil {
		panic(err.Error())
	}
	assert.Len(analyzed.Notes, 3)
	assert.Equal("A4", analyzed.Notes[0].NoteName)
	assert.Equal("C5", analyzed.Notes[1].NoteName)
	assert.Equal("E5", analyzed.Notes[2].NoteName)
	assert.Contains(string(analyzed.Report), "warmup scales")
}
