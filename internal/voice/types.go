// Package voice resolves voice profiles for languages and synthesizes speech
// through a remote provider, degrading to a tagged no-audio result when the
// provider cannot deliver playable audio.
package voice

import (
	"context"
	"errors"
)

// VoiceProfile describes one synthesizable voice.
type VoiceProfile struct {
	VoiceID     string `json:"voice_id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Gender      string `json:"gender"`
	Accent      string `json:"accent,omitempty"`
	Style       string `json:"style,omitempty"`
	Description string `json:"description,omitempty"`
	// Fallback marks a profile that audibly uses a known-good voice from
	// another language while still reporting the requested language.
	Fallback bool `json:"fallback,omitempty"`
}

// AudioResult is the outcome of a synthesis request. NoAudio set means the
// provider could not deliver playable audio; the text answer is still valid
// and callers decide between an alternate synthesis path and text-only.
type AudioResult struct {
	AudioRef string
	NoAudio  bool
	Reason   string
}

// Provider performs the actual remote synthesis and returns a playable audio
// reference. ErrNoAudio signals provider-side inability to produce audio.
type Provider interface {
	Synthesize(ctx context.Context, text, voiceID string, speed float64) (string, error)
}

// Lister fetches the remote voice catalog.
type Lister interface {
	ListVoices(ctx context.Context) ([]VoiceProfile, error)
}

// AudioStore persists synthesized audio and returns a servable reference.
type AudioStore interface {
	SaveAudio(ctx context.Context, name string, data []byte) (string, error)
}

var (
	// ErrNoAudio marks a provider response that carried no usable audio
	// (placeholder artifact, empty payload). Not a caller error.
	ErrNoAudio = errors.New("voice: provider returned no audio")

	// ErrEmptyText is a caller-contract violation.
	ErrEmptyText = errors.New("voice: empty text")

	// ErrNoProfile is a caller-contract violation.
	ErrNoProfile = errors.New("voice: missing voice profile")
)
