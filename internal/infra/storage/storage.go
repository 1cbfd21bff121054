// Package storage persists synthesized audio objects and hands back servable
// references.
package storage

import (
	"context"
	"errors"
)

// Driver selects an audio storage backend.
type Driver string

const (
	DriverLocal    Driver = "local"
	DriverSupabase Driver = "supabase"
)

// ErrInvalidConfig indicates missing configuration for the chosen driver.
var ErrInvalidConfig = errors.New("storage: invalid configuration")

// Storage saves one audio object and returns the reference clients use to
// play it back.
type Storage interface {
	SaveAudio(ctx context.Context, name string, data []byte) (string, error)
}
