package chat

import (
	"context"
	"errors"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one conversation turn. Messages are append-only: once recorded
// they are never mutated or reordered.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	AudioRef  string    `json:"audio_ref,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Document is the extraction result bound to a session. Owned exclusively by
// the session it is bound to; binding is permanent for the session's lifetime.
type Document struct {
	FileID          string `json:"file_id"`
	Filename        string `json:"filename"`
	ExtractedLength int    `json:"extracted_length"`
	Summary         string `json:"summary"`
}

// Session is one persisted conversation thread.
type Session struct {
	ID             string    `json:"id"`
	Seq            int       `json:"seq"` // creation order, used for deterministic tie-breaks
	Title          string    `json:"title"`
	Subtitle       string    `json:"subtitle"`
	Messages       []Message `json:"messages"`
	Document       *Document `json:"document,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Snapshot is the persisted form of the manager's state: all sessions in
// creation order, the active session id and the id-generation counter.
type Snapshot struct {
	Sessions []*Session `json:"sessions"`
	ActiveID string     `json:"active_id"`
	Counter  int        `json:"counter"`
}

// Store persists and restores a Snapshot across restarts. Load returns an
// empty snapshot when nothing was persisted; an error means the persisted
// blob was unreadable, which callers treat as empty state. Save must be
// atomic from the caller's perspective: a concurrent Load never observes a
// partial write.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

var (
	// ErrNotFound is returned when a session id is unknown.
	ErrNotFound = errors.New("chat: session not found")
	// ErrNoActiveSession is returned by operations that require an active session.
	ErrNoActiveSession = errors.New("chat: no active session")
)
