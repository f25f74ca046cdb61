package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seejho/etude/compare"
	"github.com/seejho/etude/constants"
	"github.com/seejho/etude/feedback"
	"github.com/seejho/etude/midiref"
	"github.com/seejho/etude/model"
	"github.com/seejho/etude/report"
	"github.com/seejho/etude/rhythm"
	"github.com/seejho/etude/segment"
	"github.com/seejho/etude/stream"
)

var compareAI bool

func init() {
	compareCmd.Flags().BoolVar(&compareAI, "ai", false, "request AI feedback (needs OPENAI_API_KEY)")
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare <reference> <player.json>",
	Short: "Scores a performance against a reference",
	Long: `Scores a recorded feature stream against a reference, which may be
another feature stream or a standard MIDI file. Prints the similarity
breakdown and writes a report pair next to the player recording.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompare(cmd.Context(), args[0], args[1])
	},
}

func runCompare(ctx context.Context, refPath, playerPath string) error {
	refStream, refNotes, refRhythm, err := loadReference(refPath)
	if err != nil {
		return err
	}
	playerStream, err := stream.ReadFile(playerPath)
	if err != nil {
		return err
	}
	playerNotes := segment.Notes(playerStream.PitchHz, playerStream.OnsetTimes, segment.DefaultConfig())
	playerRhythm := rhythm.Analyze(playerStream.OnsetTimes)

	metrics := compare.Notes(refNotes, playerNotes, refRhythm, playerRhythm, compare.DefaultConfig())

	refName := filepath.Base(refPath)
	playerName := filepath.Base(playerPath)

	fmt.Printf("%v vs %v\n", playerName, refName)
	fmt.Printf("Overall similarity: %.1f%%\n", metrics.OverallSimilarity*100)
	fmt.Printf("  Notes:  %.1f%%\n", metrics.NoteAccuracy*100)
	fmt.Printf("  Pitch:  %.1f%%\n", metrics.PitchAccuracy*100)
	fmt.Printf("  Timing: %.1f%%\n", metrics.TimingAccuracy*100)
	fmt.Printf("  Rhythm: %.1f%%\n", metrics.RhythmAccuracy*100)
	if len(metrics.MissedNotes) > 0 {
		fmt.Printf("Missed: %v\n", metrics.MissedNotes)
	}
	if len(metrics.ExtraNotes) > 0 {
		fmt.Printf("Extra: %v\n", metrics.ExtraNotes)
	}
	fmt.Println(report.Summary(metrics))

	refAnalysis := report.Assemble(refName, refStream, refNotes, refRhythm)
	playerAnalysis := report.Assemble(playerName, playerStream, playerNotes, playerRhythm)
	base := strings.TrimSuffix(playerPath, filepath.Ext(playerPath))
	if err := writeReport(base+"_report.json", report.Compact(playerAnalysis, &refAnalysis, &metrics)); err != nil {
		return err
	}
	if err := writeReport(base+"_report_full.json", report.Verbose(playerAnalysis, playerNotes, &refAnalysis, refNotes, &metrics)); err != nil {
		return err
	}

	if compareAI {
		ai, err := feedback.NewOpenAI()
		if err != nil {
			return err
		}
		text, err := ai.Comparison(ctx, metrics, refName, playerName)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(text)
	}
	return nil
}

// loadReference reads either an exported feature stream or a standard
// MIDI file, depending on the extension.
func loadReference(path string) (model.FeatureStream, []model.NoteEvent, model.RhythmPattern, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		s, err := midiref.ReadFile(path)
		if err != nil {
			return model.FeatureStream{}, nil, model.RhythmPattern{}, err
		}
		notes := midiref.NoteEvents(s)
		fs := midiref.FeatureStream(s, constants.DefaultFallbackHop)
		return fs, notes, rhythm.Analyze(fs.OnsetTimes), nil
	default:
		fs, err := stream.ReadFile(path)
		if err != nil {
			return model.FeatureStream{}, nil, model.RhythmPattern{}, err
		}
		notes := segment.Notes(fs.PitchHz, fs.OnsetTimes, segment.DefaultConfig())
		return fs, notes, rhythm.Analyze(fs.OnsetTimes), nil
	}
}
