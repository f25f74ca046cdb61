package constants

import "os"

// Segmentation defaults. Tolerance is in semitones around the pitch a
// note opened on; durations and the fallback hop are in seconds.
const (
	DefaultSemitoneTolerance = 1
	DefaultMinNoteDuration   = 0.1
	DefaultFallbackHop       = 0.01
)

// Scoring defaults. MaxTimeGap bounds how far apart two note starts may
// be and still count as the same note.
const (
	DefaultMaxTimeGap            = 0.5
	DefaultPitchTolCents         = 50.0
	DefaultTimingReportThreshold = 0.05
)

func GetListenAddr() string {
	addr := os.Getenv("ETUDE_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

func GetDataDir() string {
	dir := os.Getenv("ETUDE_DATA_DIR")
	if dir != "" {
		return dir
	}
	return "./data"
}

func GetOpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func GetOpenAIModel() string {
	model := os.Getenv("OPENAI_MODEL")
	if model != "" {
		return model
	}
	return "gpt-4o-mini"
}
