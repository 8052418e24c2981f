package server

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BubDublin/solar-proforma/internal/domain"
)

const (
	previewWriteTimeout = 10 * time.Second
	previewMaxMessage   = 64 << 10
)

// PreviewMessage is sent for every input received on the preview socket.
// Exactly one of Headline and Error is set.
type PreviewMessage struct {
	ProFormaID string           `json:"id,omitempty"`
	Digest     string           `json:"digest,omitempty"`
	Headline   *domain.Headline `json:"headline,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// previewConn serializes writes from the read loop and the pinger.
type previewConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *previewConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(previewWriteTimeout))
	return c.conn.WriteJSON(v)
}

func (c *previewConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(previewWriteTimeout))
}

// handlePreview upgrades to a websocket and answers every ProjectInput
// message with its headline metrics. Invalid input yields an error message;
// the connection stays open.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, http.Header{RequestIDHeader: {RequestID(r.Context())}})
	if err != nil {
		s.logger.Printf("%s preview upgrade: %v", RequestID(r.Context()), err)
		return
	}
	defer conn.Close()

	s.metrics.PreviewOpened()
	defer s.metrics.PreviewClosed()

	pc := &previewConn{conn: conn}
	conn.SetReadLimit(previewMaxMessage)
	conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(s.readTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := pc.ping(); err != nil {
					return
				}
			}
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("%s preview read: %v", RequestID(r.Context()), err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		s.metrics.RecordPreviewMessage()

		if err := pc.writeJSON(s.preview(data)); err != nil {
			s.logger.Printf("%s preview write: %v", RequestID(r.Context()), err)
			return
		}
	}
}

func (s *Server) preview(data []byte) PreviewMessage {
	var in domain.ProjectInput
	if err := decodeJSON(bytes.NewReader(data), &in); err != nil {
		return PreviewMessage{Error: err.Error()}
	}

	rep, err := s.compute("preview", in)
	if err != nil {
		return PreviewMessage{Error: err.Error()}
	}

	headline := rep.Result.Headline()
	return PreviewMessage{
		ProFormaID: rep.ProFormaID,
		Digest:     rep.Digest,
		Headline:   &headline,
	}
}
