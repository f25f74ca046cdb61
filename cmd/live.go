package cmd

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/seejho/etude/constants"
	"github.com/seejho/etude/midiref"
	"github.com/seejho/etude/model"
	"github.com/seejho/etude/stream"
)

var (
	liveServer string
	liveSpan   float64
)

func init() {
	liveCmd.Flags().StringVar(&liveServer, "server", "localhost:8080", "host:port of a running etude server")
	liveCmd.Flags().Float64Var(&liveSpan, "chunk", 0.25, "seconds of stream per websocket message")
	rootCmd.AddCommand(liveCmd)
}

var liveCmd = &cobra.Command{
	Use:   "live <stream.json|score.mid>",
	Short: "Replays a stream against a live session",
	Long: `Replays a recorded feature stream, or a standard MIDI file rendered as
one, over the live websocket of a running server, printing each update
as it arrives. Useful for demoing the live endpoint without an
instrument plugged in.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLive(args[0])
	},
}

func runLive(path string) error {
	fs, err := loadStream(path)
	if err != nil {
		return err
	}

	u := url.URL{Scheme: "ws", Host: liveServer, Path: "/api/v1/live"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %v: %w", u.String(), err)
	}
	defer conn.Close()

	done := make(chan error, 1)
	go func() {
		for {
			var update model.LiveUpdate
			if err := conn.ReadJSON(&update); err != nil {
				done <- err
				return
			}
			printUpdate(update)
			if update.Final {
				done <- nil
				return
			}
		}
	}()

	for i, chunk := range splitChunks(fs, liveSpan) {
		if i > 0 {
			time.Sleep(time.Duration(liveSpan * float64(time.Second)))
		}
		if err := conn.WriteJSON(chunk); err != nil {
			return err
		}
	}
	if err := conn.WriteJSON(model.LiveChunk{Finish: true}); err != nil {
		return err
	}
	return <-done
}

// loadStream reads either an exported feature stream or a standard
// MIDI file rendered onto the fallback hop grid.
func loadStream(path string) (model.FeatureStream, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		s, err := midiref.ReadFile(path)
		if err != nil {
			return model.FeatureStream{}, err
		}
		return midiref.FeatureStream(s, constants.DefaultFallbackHop), nil
	default:
		return stream.ReadFile(path)
	}
}

// splitChunks cuts the stream into messages each spanning roughly span
// seconds, so the replay looks like a player streaming in real time.
func splitChunks(fs model.FeatureStream, span float64) []model.LiveChunk {
	var out []model.LiveChunk
	var cur model.LiveChunk
	next := span
	for i, hz := range fs.PitchHz {
		t := float64(i) * constants.DefaultFallbackHop
		if i < len(fs.OnsetTimes) {
			t = fs.OnsetTimes[i]
		}
		if t >= next && len(cur.PitchHz) > 0 {
			out = append(out, cur)
			cur = model.LiveChunk{}
			next = t + span
		}
		cur.PitchHz = append(cur.PitchHz, hz)
		if i < len(fs.OnsetTimes) {
			cur.OnsetTimes = append(cur.OnsetTimes, fs.OnsetTimes[i])
		}
	}
	// Onsets past the last pitch frame still shape the rhythm profile
	// and the end of the final note, so they ride along in the last
	// chunk.
	if len(fs.OnsetTimes) > len(fs.PitchHz) {
		cur.OnsetTimes = append(cur.OnsetTimes, fs.OnsetTimes[len(fs.PitchHz):]...)
	}
	if len(cur.PitchHz) > 0 || len(cur.OnsetTimes) > 0 {
		out = append(out, cur)
	}
	return out
}

func printUpdate(u model.LiveUpdate) {
	if u.Final {
		fmt.Printf("final: %v notes\n", len(u.Notes))
		for _, n := range u.Notes {
			fmt.Printf("  %v at %.2fs for %.3fs\n", n.NoteName, n.StartTime, n.Duration)
		}
		return
	}
	if u.Pending != nil {
		fmt.Printf("%v notes so far, playing %v\n", len(u.Notes), u.Pending.NoteName)
		return
	}
	fmt.Printf("%v notes so far\n", len(u.Notes))
}
