package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/seejho/etude/model"
	"github.com/seejho/etude/rhythm"
	"github.com/seejho/etude/segment"
)

// liveDebounce is how long the server waits for a burst of chunks to
// settle before pushing an update.
const liveDebounce = 50 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from whatever origin serves the UI.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveSession owns one websocket connection and the segmenter behind
// it. The mutex serializes the read loop against debounced pushes,
// which run on the debouncer's goroutine.
type liveSession struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	seg    *segment.Segmenter
	onsets []float64
	done   bool
}

// handleLive upgrades the request and feeds incoming chunks to a
// per-connection segmenter. Updates are debounced so a burst of tiny
// chunks produces one push. The session ends when the client sends
// finish, closes the socket, or a write fails.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.stats.LiveSessions.Inc()

	sess := &liveSession{conn: conn, seg: segment.New(segment.DefaultConfig())}
	defer conn.Close()
	defer sess.close()

	push := debounce.New(liveDebounce)
	for {
		var chunk model.LiveChunk
		if err := conn.ReadJSON(&chunk); err != nil {
			s.log.Debug("live session ended", zap.Error(err))
			return
		}
		sess.feed(chunk)
		if chunk.Finish {
			sess.finish()
			return
		}
		push(sess.push)
	}
}

func (ls *liveSession) feed(chunk model.LiveChunk) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.onsets = append(ls.onsets, chunk.OnsetTimes...)
	ls.seg.Feed(chunk.PitchHz, chunk.OnsetTimes)
}

// push sends the state so far: completed notes, the note still
// sounding, and the rhythm profile of every onset seen.
func (ls *liveSession) push() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.done {
		return
	}
	update := model.LiveUpdate{
		Notes:  ls.seg.Notes(),
		Rhythm: rhythm.Analyze(ls.onsets),
	}
	if pending, ok := ls.seg.Pending(); ok {
		update.Pending = &pending
	}
	if err := ls.conn.WriteJSON(update); err != nil {
		ls.done = true
	}
}

// finish flushes the segmenter and sends the final update.
func (ls *liveSession) finish() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.done {
		return
	}
	ls.done = true
	ls.conn.WriteJSON(model.LiveUpdate{
		Notes:  ls.seg.Finish(),
		Rhythm: rhythm.Analyze(ls.onsets),
		Final:  true,
	})
}

func (ls *liveSession) close() {
	ls.mu.Lock()
	ls.done = true
	ls.mu.Unlock()
}
