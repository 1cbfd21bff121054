package voice

import (
	"context"
	"errors"
	"log"
	"strings"
)

// Gateway fronts the synthesis provider. Provider unavailability degrades to
// a tagged no-audio result; only caller-contract violations return an error.
type Gateway struct {
	catalog  *Catalog
	provider Provider

	// SpeedScale multiplies the per-language synthesis speed. Zero or
	// negative means no scaling.
	SpeedScale float64
}

// NewGateway wires a catalog and a synthesis provider.
func NewGateway(catalog *Catalog, provider Provider) *Gateway {
	return &Gateway{catalog: catalog, provider: provider}
}

// ResolveVoice returns a usable profile for the language. Never fails.
func (g *Gateway) ResolveVoice(ctx context.Context, language string) VoiceProfile {
	return g.catalog.Resolve(ctx, language)
}

// Synthesize converts text to a playable audio reference using the given
// profile. Empty text or a zero profile is a hard error. Provider failures
// and non-audio provider artifacts come back as a NoAudio result.
func (g *Gateway) Synthesize(ctx context.Context, text string, profile VoiceProfile) (AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return AudioResult{}, ErrEmptyText
	}
	if profile.VoiceID == "" {
		return AudioResult{}, ErrNoProfile
	}
	if g.provider == nil {
		return AudioResult{NoAudio: true, Reason: "no synthesis provider configured"}, nil
	}

	speed := SpeedForLanguage(profile.Language)
	if g.SpeedScale > 0 {
		speed *= g.SpeedScale
	}
	ref, err := g.provider.Synthesize(ctx, text, profile.VoiceID, speed)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return AudioResult{}, err
		}
		log.Printf("voice: synthesis unavailable (voice %s): %v", profile.VoiceID, err)
		return AudioResult{NoAudio: true, Reason: err.Error()}, nil
	}
	if ref == "" {
		return AudioResult{NoAudio: true, Reason: ErrNoAudio.Error()}, nil
	}
	return AudioResult{AudioRef: ref}, nil
}
