package httpserver

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/chadiek/talkpdf/internal/audio"
	"github.com/chadiek/talkpdf/internal/call"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn serializes writes to one websocket connection. Call events and
// playback audio arrive from different goroutines.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteJSON(v); err != nil {
		log.Printf("httpserver: ws write: %v", err)
	}
}

func (w *wsConn) writeBinary(p []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		log.Printf("httpserver: ws write audio: %v", err)
	}
}

// wsCapture buffers binary frames received while the call is listening. It is
// the connection's exclusive capture device.
type wsCapture struct {
	mu        sync.Mutex
	recording bool
	buf       []byte
}

func (c *wsCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording = true
	c.buf = nil
	return nil
}

func (c *wsCapture) Stop() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording = false
	out := c.buf
	c.buf = nil
	return out, nil
}

func (c *wsCapture) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recording = false
	c.buf = nil
}

func (c *wsCapture) append(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recording {
		c.buf = append(c.buf, p...)
	}
}

// wsSink streams rendition audio to the client as binary frames. Reset and
// FlushTail are relayed as control events so the client can manage its
// playback buffer.
type wsSink struct {
	conn *wsConn
}

func (s *wsSink) WriteAudio(p []byte) { s.conn.writeBinary(p) }

func (s *wsSink) FlushTail() {
	s.conn.writeJSON(map[string]string{"type": "audio_done"})
}

func (s *wsSink) Reset() {
	s.conn.writeJSON(map[string]string{"type": "audio_reset"})
}

type wsControl struct {
	Type     string `json:"type"`
	FileID   string `json:"file_id"`
	Language string `json:"language"`
	VoiceID  string `json:"voice_id"`
	Muted    bool   `json:"muted"`
}

// handleCallSocket runs one push-to-talk call over a websocket. Text frames
// carry JSON control messages, binary frames carry captured audio upstream
// and synthesized audio downstream.
func (s *Server) handleCallSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	wc := &wsConn{conn: conn}
	capture := &wsCapture{}
	var sess *call.Call

	defer func() {
		if sess != nil {
			sess.EndCall()
		}
		conn.Close()
	}()

	events := call.Events{
		OnState: func(st call.State) {
			wc.writeJSON(map[string]string{"type": "state", "state": st.String()})
		},
		OnTurn: func(e call.TurnEntry) {
			wc.writeJSON(map[string]any{"type": "turn", "entry": e})
		},
		OnTick: func(elapsed string) {
			wc.writeJSON(map[string]string{"type": "tick", "elapsed": elapsed})
		},
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("httpserver: ws read: %v", err)
			}
			return nil
		}
		if mt == websocket.BinaryMessage {
			capture.append(data)
			continue
		}

		var msg wsControl
		if err := json.Unmarshal(data, &msg); err != nil {
			wc.writeJSON(map[string]string{"type": "error", "detail": "invalid control message"})
			continue
		}

		switch msg.Type {
		case "start":
			if sess != nil && sess.State() != call.StateEnded {
				wc.writeJSON(map[string]string{"type": "error", "detail": "call already started"})
				continue
			}
			language := msg.Language
			if language == "" {
				language = "en-US"
			}
			player := audio.NewController(audio.NewRefSource(s.deps.AudioDir), &wsSink{conn: wc})
			started, err := s.deps.Calls.Start(msg.FileID, language, msg.VoiceID, capture, player, events)
			if err != nil {
				wc.writeJSON(map[string]string{"type": "error", "detail": err.Error()})
				continue
			}
			sess = started
		case "begin_capture":
			if sess == nil {
				wc.writeJSON(map[string]string{"type": "error", "detail": "no call in progress"})
				continue
			}
			if err := sess.BeginCapture(); err != nil {
				wc.writeJSON(map[string]string{"type": "error", "detail": err.Error()})
			}
		case "end_capture":
			if sess != nil {
				sess.EndCapture()
			}
		case "mute":
			if sess != nil {
				sess.SetMuted(msg.Muted)
			}
		case "end":
			if sess != nil {
				sess.EndCall()
			}
		default:
			wc.writeJSON(map[string]string{"type": "error", "detail": "unknown message type: " + msg.Type})
		}
	}
}
