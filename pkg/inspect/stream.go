package inspect

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/pathway"
)

// stream pushes the committed state on connect and after every change that
// leaves the router idle. Intermediate states are coalesced: a slow client
// only ever sees the latest one.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("inspect: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates := make(chan struct{}, 1)
	unsubscribe := s.router.Subscribe(func(next, _ pathway.State) {
		if next.Status != pathway.StatusIdle {
			return
		}
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	// Reads only detect the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() error {
		conn.SetWriteDeadline(time.Now().Add(s.timeout))
		return conn.WriteJSON(NewStateView(s.router.State()))
	}
	if err := send(); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-updates:
			if err := send(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.log.Debug("inspect: websocket write failed", "error", err)
				}
				return
			}
		}
	}
}
