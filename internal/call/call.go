package call

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chadiek/talkpdf/internal/audio"
)

// DefaultPipelineTimeout bounds one turn's remote round trip.
const DefaultPipelineTimeout = 60 * time.Second

// Call is one live push-to-talk session. All transitions are guarded by one
// mutex; observer callbacks run outside it.
type Call struct {
	mu        sync.Mutex
	state     State
	docID     string
	language  string
	voiceID   string
	turns     []TurnEntry
	startedAt time.Time
	muted     bool
	turnSeq   int
	stopTick  chan struct{}
	ended     bool

	capture  CaptureDevice
	pipeline Pipeline
	player   Player
	events   Events
	timeout  time.Duration
	now      func() time.Time
}

func newCall(docID, language, voiceID string, capture CaptureDevice, pipeline Pipeline, player Player, events Events, timeout time.Duration) *Call {
	if timeout <= 0 {
		timeout = DefaultPipelineTimeout
	}
	c := &Call{
		state:    StateConnected,
		docID:    docID,
		language: language,
		voiceID:  voiceID,
		stopTick: make(chan struct{}),
		capture:  capture,
		pipeline: pipeline,
		player:   player,
		events:   events,
		timeout:  timeout,
		now:      time.Now,
	}
	c.startedAt = c.now()
	return c
}

func (c *Call) start() {
	go c.tickLoop()
	c.emitState(StateConnected)
}

// BeginCapture starts the listening phase. A no-op unless Connected, so a
// second press while a turn is in flight cannot overlap recordings.
func (c *Call) BeginCapture() error {
	c.mu.Lock()
	if c.state != StateConnected {
		state := c.state
		c.mu.Unlock()
		log.Printf("call: begin capture ignored in state %s", state)
		return nil
	}
	if err := c.capture.Start(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("call: acquire capture device: %w", err)
	}
	c.state = StateListening
	c.mu.Unlock()
	c.emitState(StateListening)
	return nil
}

// EndCapture ends the listening phase and hands the recorded audio to the
// pipeline. The capture device is released from the utterance immediately;
// the pipeline runs in the background with a bounded timeout.
func (c *Call) EndCapture() {
	c.mu.Lock()
	if c.state != StateListening {
		state := c.state
		c.mu.Unlock()
		log.Printf("call: end capture ignored in state %s", state)
		return
	}
	audioBytes, err := c.capture.Stop()
	c.state = StateProcessing
	c.turnSeq++
	seq := c.turnSeq
	docID, language, voiceID := c.docID, c.language, c.voiceID
	c.mu.Unlock()
	c.emitState(StateProcessing)

	if err != nil {
		c.failTurn(seq, fmt.Errorf("capture: %w", err))
		return
	}
	go c.runTurn(seq, audioBytes, docID, language, voiceID)
}

func (c *Call) runTurn(seq int, audioBytes []byte, fileID, language, voiceID string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	res, err := c.pipeline.RunTurn(ctx, audioBytes, fileID, language, voiceID)
	if err != nil {
		c.failTurn(seq, err)
		return
	}
	c.applyResult(seq, res)
}

// failTurn records a single system entry and returns the call to Connected.
// One failed turn never terminates the call.
func (c *Call) failTurn(seq int, err error) {
	c.mu.Lock()
	if c.state == StateEnded || seq != c.turnSeq {
		c.mu.Unlock()
		log.Printf("call: discarding late turn failure: %v", err)
		return
	}
	entry := TurnEntry{Speaker: SpeakerSystem, Text: "turn failed: " + err.Error(), Timestamp: c.now()}
	c.turns = append(c.turns, entry)
	c.state = StateConnected
	c.mu.Unlock()

	log.Printf("call: turn failed: %v", err)
	c.emitTurn(entry)
	c.emitState(StateConnected)
}

// applyResult appends the user and assistant entries atomically and moves to
// Speaking. Results arriving after EndCall or for a stale turn are discarded.
func (c *Call) applyResult(seq int, res TurnResult) {
	c.mu.Lock()
	if c.state == StateEnded || seq != c.turnSeq {
		c.mu.Unlock()
		log.Printf("call: discarding late pipeline result")
		return
	}
	ts := c.now()
	userEntry := TurnEntry{Speaker: SpeakerUser, Text: res.RecognizedText, Timestamp: ts}
	asstEntry := TurnEntry{Speaker: SpeakerAssistant, Text: res.ResponseText, Timestamp: ts}
	c.turns = append(c.turns, userEntry, asstEntry)
	c.state = StateSpeaking
	muted := c.muted
	c.mu.Unlock()

	c.emitTurn(userEntry)
	c.emitTurn(asstEntry)
	c.emitState(StateSpeaking)

	// Mute is checked per turn: it suppresses playback of this result, it
	// does not cancel the synthesis that produced it.
	if muted || res.AudioRef == "" || c.player == nil {
		c.finishSpeaking(seq)
		return
	}

	// The Speaking notification above may have ended the call. Starting
	// playback must be atomic with that check, or audio would start on a
	// session that is already Ended.
	c.mu.Lock()
	if c.state != StateSpeaking || seq != c.turnSeq {
		c.mu.Unlock()
		return
	}
	c.player.Play(res.AudioRef, func(st audio.State, err error) {
		switch st {
		case audio.StateErrored:
			log.Printf("call: response playback failed: %v", err)
			c.finishSpeaking(seq)
		case audio.StateEnded, audio.StateStopped:
			c.finishSpeaking(seq)
		}
	})
	c.mu.Unlock()
}

func (c *Call) finishSpeaking(seq int) {
	c.mu.Lock()
	if c.state != StateSpeaking || seq != c.turnSeq {
		c.mu.Unlock()
		return
	}
	c.state = StateConnected
	c.mu.Unlock()
	c.emitState(StateConnected)
}

// EndCall terminates the session from any state: playback and recording stop
// immediately, the timer stops, the capture device is released and the bound
// document cleared. In-flight pipeline results are discarded on arrival.
func (c *Call) EndCall() {
	c.mu.Lock()
	if c.state == StateEnded {
		c.mu.Unlock()
		return
	}
	c.state = StateEnded
	c.docID = ""
	if !c.ended {
		c.ended = true
		close(c.stopTick)
	}
	c.mu.Unlock()

	if c.player != nil {
		c.player.Stop()
	}
	c.capture.Release()
	c.emitState(StateEnded)
}

// SetMuted toggles per-turn playback suppression.
func (c *Call) SetMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()
}

// Muted reports the mute toggle.
func (c *Call) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// State returns the current call state.
func (c *Call) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DocumentID returns the bound document id, empty once the call ends.
func (c *Call) DocumentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docID
}

// TurnLog returns a copy of the turn log.
func (c *Call) TurnLog() []TurnEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TurnEntry, len(c.turns))
	copy(out, c.turns)
	return out
}

// Elapsed recomputes the call duration from the start time, so the display
// never drifts, and formats it MM:SS.
func (c *Call) Elapsed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FormatElapsed(c.now().Sub(c.startedAt))
}

func (c *Call) tickLoop() {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-c.stopTick:
			return
		case <-t.C:
			if c.events.OnTick != nil {
				c.events.OnTick(c.Elapsed())
			}
		}
	}
}

func (c *Call) emitState(s State) {
	if c.events.OnState != nil {
		c.events.OnState(s)
	}
}

func (c *Call) emitTurn(e TurnEntry) {
	if c.events.OnTurn != nil {
		c.events.OnTurn(e)
	}
}

// FormatElapsed renders a duration as zero-padded MM:SS with no hour
// component; minutes keep counting past 59.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Manager enforces the process-wide single active call.
type Manager struct {
	mu       sync.Mutex
	active   *Call
	pipeline Pipeline
	timeout  time.Duration
}

// NewManager creates the call manager. timeout <= 0 selects the default.
func NewManager(pipeline Pipeline, timeout time.Duration) *Manager {
	return &Manager{pipeline: pipeline, timeout: timeout}
}

// Start creates a fresh call session using the caller's capture device and
// player. Rejected while another call is live or when no document is bound.
func (m *Manager) Start(docID, language, voiceID string, capture CaptureDevice, player Player, events Events) (*Call, error) {
	if docID == "" {
		return nil, ErrNoDocument
	}
	m.mu.Lock()
	if m.active != nil && m.active.State() != StateEnded {
		m.mu.Unlock()
		return nil, ErrAlreadyActive
	}
	c := newCall(docID, language, voiceID, capture, m.pipeline, player, events, m.timeout)
	m.active = c
	m.mu.Unlock()

	c.start()
	return c, nil
}

// Active returns the live call, or nil when none is live.
func (m *Manager) Active() *Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil || m.active.State() == StateEnded {
		return nil
	}
	return m.active
}
