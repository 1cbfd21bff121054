package voice

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/chadiek/talkpdf/internal/audio"
)

// Streamer synthesizes speech into an audio sink instead of producing a
// stored reference. DeepgramSpeaker satisfies it.
type Streamer interface {
	Speak(ctx context.Context, text string, sink audio.Sink) error
}

// SpeakerProvider adapts a streaming speaker to the stored-reference Provider
// contract: frames are collected, wrapped in a WAV container and saved.
type SpeakerProvider struct {
	speaker    Streamer
	store      AudioStore
	sampleRate int
}

// NewSpeakerProvider wires a streamer and the audio store.
func NewSpeakerProvider(speaker Streamer, store AudioStore) *SpeakerProvider {
	return &SpeakerProvider{speaker: speaker, store: store, sampleRate: 48000}
}

// Synthesize implements Provider. speed is ignored; the streaming path has no
// rate control.
func (p *SpeakerProvider) Synthesize(ctx context.Context, text, _ string, _ float64) (string, error) {
	sink := &collectSink{}
	if err := p.speaker.Speak(ctx, text, sink); err != nil {
		return "", err
	}
	pcm := sink.bytes()
	if len(pcm) == 0 {
		return "", ErrNoAudio
	}
	name := "deepgram_" + uuid.NewString() + ".wav"
	ref, err := p.store.SaveAudio(ctx, name, wrapWAV(pcm, p.sampleRate))
	if err != nil {
		return "", fmt.Errorf("voice: store streamed audio: %w", err)
	}
	return ref, nil
}

type collectSink struct {
	mu  sync.Mutex
	buf []byte
}

func (s *collectSink) WriteAudio(p []byte) {
	s.mu.Lock()
	s.buf = append(s.buf, p...)
	s.mu.Unlock()
}

func (s *collectSink) FlushTail() {}

func (s *collectSink) Reset() {
	s.mu.Lock()
	s.buf = nil
	s.mu.Unlock()
}

func (s *collectSink) bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

// wrapWAV prefixes raw 16-bit mono PCM with a RIFF/WAVE header.
func wrapWAV(pcm []byte, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	out := make([]byte, 0, 44+len(pcm))
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+len(pcm)))
	out = append(out, "WAVE"...)
	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1) // PCM
	out = binary.LittleEndian.AppendUint16(out, channels)
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate))
	out = binary.LittleEndian.AppendUint32(out, uint32(byteRate))
	out = binary.LittleEndian.AppendUint16(out, uint16(blockAlign))
	out = binary.LittleEndian.AppendUint16(out, bitsPerSample)
	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(pcm)))
	out = append(out, pcm...)
	return out
}

// FallbackProvider tries the primary provider first and falls back to the
// secondary when the primary fails or produces no audio.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
}

// NewFallbackProvider composes two providers.
func NewFallbackProvider(primary, secondary Provider) *FallbackProvider {
	return &FallbackProvider{primary: primary, secondary: secondary}
}

// Synthesize implements Provider.
func (p *FallbackProvider) Synthesize(ctx context.Context, text, voiceID string, speed float64) (string, error) {
	ref, err := p.primary.Synthesize(ctx, text, voiceID, speed)
	if err == nil && ref != "" {
		return ref, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if err != nil {
		log.Printf("voice: primary synthesis failed, trying fallback: %v", err)
	}
	return p.secondary.Synthesize(ctx, text, voiceID, speed)
}
