package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seejho/etude/constants"
	"github.com/seejho/etude/feedback"
	"github.com/seejho/etude/server"
	"github.com/seejho/etude/store"
)

var (
	serveAddr    string
	serveDataDir string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", constants.GetListenAddr(), "listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", constants.GetDataDir(), "submission database directory")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the analysis HTTP server",
	Long: `Runs the HTTP server: compare and analyze endpoints, stored
submissions, Prometheus metrics, and a websocket for live sessions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	st, err := store.Open(serveDataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	var ai feedback.Client
	if constants.GetOpenAIKey() != "" {
		client, err := feedback.NewOpenAI()
		if err != nil {
			return err
		}
		ai = client
		logger.Info("ai feedback enabled", zap.String("model", constants.GetOpenAIModel()))
	}

	return server.New(logger, st, ai).ListenAndServe(serveAddr)
}
