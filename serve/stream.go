// Copyright © 2021-2025 The Gomon Project.

package serve

import (
	"net/http"

	"github.com/zosmac/gocore"
	"github.com/zosmac/pidmon/format"
	"github.com/zosmac/pidmon/monitor"
	"golang.org/x/net/websocket"
)

const (
	// backlog of rows buffered for a slow websocket client before rows are dropped.
	backlog = 64
)

// stream opens a web socket that delivers the session's table, starting with the header,
// a row per sample, and the peak summary when the session stops.
func (s *Server) stream() http.Handler {
	return websocket.Server{
		Config: websocket.Config{
			Version: websocket.ProtocolVersionHybi,
		},
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			s.mu.Lock()
			s.requests++
			s.mu.Unlock()

			ch, ok := s.subscribe()
			if !ok {
				r, _ := s.snapshot()
				ch = make(chan string, 1)
				ch <- format.Summary(r.Peak)
				close(ch)
			}
			defer s.unsubscribe(ch)

			for _, line := range format.Header(s.detailed) {
				if err := websocket.Message.Send(ws, line); err != nil {
					gocore.Error("websocket Send", err).Warn()
					return
				}
			}
			for line := range ch {
				if err := websocket.Message.Send(ws, line); err != nil {
					gocore.Error("websocket Send", err).Warn()
					return
				}
			}
		},
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
	}
}

// subscribe registers a channel for the rows of the session. It fails if the session has
// already stopped.
func (s *Server) subscribe() (chan string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribers == nil {
		return nil, false
	}
	ch := make(chan string, backlog)
	s.subscribers[ch] = struct{}{}
	return ch, true
}

// unsubscribe releases a channel.
func (s *Server) unsubscribe(ch chan string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// publish sends a report's line to the subscribers, closing their channels once the session
// has stopped. A subscriber whose backlog is full misses the row, but never the summary.
func (s *Server) publish(r monitor.Report) {
	line := format.Summary(r.Peak)
	if r.Outcome == "" {
		line = format.Row(r.Sample, s.detailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- line:
		default:
			if r.Outcome != "" { // make room for the summary
				select {
				case <-ch:
				default:
				}
				ch <- line
			}
		}
		if r.Outcome != "" {
			close(ch)
		}
	}
	if r.Outcome != "" {
		s.subscribers = nil
	}
}
