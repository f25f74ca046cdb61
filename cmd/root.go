package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seejho/etude/logging"
)

var debug bool

// logger is built by the root command before any subcommand runs.
var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "etude",
	Short: "Music performance accuracy analysis",
	Long: `Etude scores a recorded performance against a reference. It segments
framewise pitch streams into notes, compares them on pitch, timing and
rhythm, and produces practice reports.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(debug)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// writeReport marshals v with indentation and writes it next to the
// recording being analyzed.
func writeReport(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %v: %w", path, err)
	}
	fmt.Printf("Wrote %v\n", path)
	return nil
}
