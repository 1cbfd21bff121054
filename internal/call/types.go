// Package call implements the push-to-talk call session: a small state
// machine that owns the capture device, drives the turn pipeline, and plays
// the synthesized response.
package call

import (
	"context"
	"errors"
	"time"

	"github.com/chadiek/talkpdf/internal/audio"
	"github.com/chadiek/talkpdf/internal/voice"
)

// State is the call lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnected
	StateListening
	StateProcessing
	StateSpeaking
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Speaker identifies who produced a turn-log entry.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
	SpeakerSystem    Speaker = "system"
)

// TurnEntry is one line of the call's turn log.
type TurnEntry struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnResult is what one pipeline round trip produces. AudioRef may be empty
// when synthesis was unavailable; the text answer still stands.
type TurnResult struct {
	RecognizedText string
	ResponseText   string
	AudioRef       string
}

// Pipeline runs one full turn: transcription, answer, synthesis.
type Pipeline interface {
	RunTurn(ctx context.Context, audioBytes []byte, fileID, language, voiceID string) (TurnResult, error)
}

// CaptureDevice is the exclusive microphone handle. Start acquires it for one
// listening phase, Stop ends the phase and returns the captured bytes,
// Release frees the device entirely.
type CaptureDevice interface {
	Start() error
	Stop() ([]byte, error)
	Release()
}

// Player renders one audio reference at a time. audio.Controller satisfies
// it. Play must return without invoking onState; transitions are delivered
// asynchronously.
type Player interface {
	Play(ref string, onState func(audio.State, error))
	Stop()
	IsPlaying() bool
}

// Transcriber converts captured audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioBytes []byte, language string) (string, error)
}

// Answerer produces the assistant response for a recognized utterance.
type Answerer interface {
	Answer(ctx context.Context, message, fileID, language string) (string, error)
}

// SpeechGateway resolves voices and synthesizes responses.
type SpeechGateway interface {
	ResolveVoice(ctx context.Context, language string) voice.VoiceProfile
	Synthesize(ctx context.Context, text string, profile voice.VoiceProfile) (voice.AudioResult, error)
}

// Events carries the call's observer callbacks. All fields are optional.
// Callbacks are invoked outside the call's internal lock.
type Events struct {
	OnState func(State)
	OnTurn  func(TurnEntry)
	OnTick  func(elapsed string)
}

var (
	// ErrAlreadyActive rejects starting a call while another is live.
	ErrAlreadyActive = errors.New("call: a call is already active")

	// ErrNoDocument rejects starting a call without bound document context.
	ErrNoDocument = errors.New("call: no document bound")

	// ErrNoSpeech marks a capture that produced no recognizable speech.
	ErrNoSpeech = errors.New("call: no speech recognized")
)
