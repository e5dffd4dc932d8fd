package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"rutaopt/internal/opt"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

// ProgressHandler streams optimization progress over WebSocket. The
// branch-and-bound search is anytime: every incumbent improvement is
// published, so a client watching this stream sees the best route cost
// tighten while the search runs. Query parameter `algoritmo` selects the
// topic (default backtracking).
func (s *Server) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("algoritmo")
	if topic == "" {
		topic = opt.AlgorithmBacktracking
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)

	// Drain pings so the read deadline advances; the peer closing ends the
	// handler through the read error channel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(1 << 16)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
