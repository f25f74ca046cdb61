package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seejho/etude/feedback"
	"github.com/seejho/etude/report"
	"github.com/seejho/etude/rhythm"
	"github.com/seejho/etude/segment"
	"github.com/seejho/etude/stream"
)

var analyzeAI bool

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeAI, "ai", false, "request AI feedback (needs OPENAI_API_KEY)")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <stream.json>",
	Short: "Analyzes a recorded feature stream",
	Long: `Analyzes a recorded feature stream: segments it into notes, profiles
the rhythm, and writes a report pair next to the input file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), args[0])
	},
}

func runAnalyze(ctx context.Context, path string) error {
	fs, err := stream.ReadFile(path)
	if err != nil {
		return err
	}
	notes := segment.Notes(fs.PitchHz, fs.OnsetTimes, segment.DefaultConfig())
	pattern := rhythm.Analyze(fs.OnsetTimes)
	name := filepath.Base(path)

	fmt.Printf("%v: %v notes over %.2fs\n", name, len(notes), stream.Duration(fs))
	for _, n := range notes {
		fmt.Printf("  %v at %.2fs for %.3fs\n", n.NoteName, n.StartTime, n.Duration)
	}

	analysis := report.Assemble(name, fs, notes, pattern)
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := writeReport(base+"_report.json", report.Compact(analysis, nil, nil)); err != nil {
		return err
	}
	if err := writeReport(base+"_report_full.json", report.Verbose(analysis, notes, nil, nil, nil)); err != nil {
		return err
	}

	if analyzeAI {
		ai, err := feedback.NewOpenAI()
		if err != nil {
			return err
		}
		text, err := ai.Analysis(ctx, fs, notes, name)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(text)
	}
	return nil
}
