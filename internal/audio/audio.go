// Package audio renders playable audio references through a sink while
// enforcing a single system-wide playback at a time.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// State is the playback lifecycle of one rendition.
type State int

const (
	StateLoading State = iota
	StatePlaying
	StateEnded
	StateErrored
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	case StateErrored:
		return "errored"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrorKind classifies playback failures for user-facing reporting.
type ErrorKind int

const (
	KindFormat ErrorKind = iota
	KindNetwork
	KindDecode
	KindAborted
	KindPermission
)

var kindMessages = map[ErrorKind]string{
	KindFormat:     "This audio format is not supported.",
	KindNetwork:    "Network problem while loading audio. Check your connection and try again.",
	KindDecode:     "The audio could not be decoded.",
	KindAborted:    "Playback was interrupted.",
	KindPermission: "Audio playback was not allowed.",
}

// PlaybackError carries a classified playback failure.
type PlaybackError struct {
	Kind ErrorKind
	Err  error
}

func (e *PlaybackError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio: %s: %v", e.UserMessage(), e.Err)
	}
	return "audio: " + e.UserMessage()
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// UserMessage returns the message to surface to the user for this failure.
func (e *PlaybackError) UserMessage() string { return kindMessages[e.Kind] }

func playbackErr(kind ErrorKind, err error) *PlaybackError {
	return &PlaybackError{Kind: kind, Err: err}
}

// AsPlaybackError extracts a PlaybackError from an error chain, defaulting
// unclassified failures to the decode kind.
func AsPlaybackError(err error) *PlaybackError {
	var pe *PlaybackError
	if errors.As(err, &pe) {
		return pe
	}
	return playbackErr(KindDecode, err)
}

// Source resolves an audio reference to a byte stream.
type Source interface {
	Fetch(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Sink consumes audio bytes and performs delivery. Implementations should
// buffer internally and pace delivery.
type Sink interface {
	WriteAudio(p []byte)
	// FlushTail delivers any buffered tail once a rendition completes.
	FlushTail()
	// Reset drops queued audio immediately (used when a rendition is superseded).
	Reset()
}

// NopSink discards all audio.
type NopSink struct{}

func (NopSink) WriteAudio(_ []byte) {}
func (NopSink) FlushTail()          {}
func (NopSink) Reset()              {}
