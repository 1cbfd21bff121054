package chat

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// titleLimit caps the derived session title length in runes.
const titleLimit = 30

// Manager owns the set of chat sessions, the active-session pointer and the
// per-session message history. Every state-mutating operation persists through
// the configured Store before returning.
type Manager struct {
	mu       sync.Mutex
	store    Store
	sessions map[string]*Session
	activeID string
	counter  int

	// onActive is invoked after the active session changes, with a copy of
	// the newly active session (nil when no session remains active).
	onActive func(*Session)

	now func() time.Time
}

// NewManager restores persisted state from store. An unreadable blob is
// logged and treated as empty state; it never fails construction.
func NewManager(store Store, onActive func(*Session)) *Manager {
	m := &Manager{
		store:    store,
		sessions: make(map[string]*Session),
		onActive: onActive,
		now:      time.Now,
	}
	snap, err := store.Load(context.Background())
	if err != nil {
		log.Printf("chat: discarding unreadable session state: %v", err)
		return m
	}
	if snap == nil {
		return m
	}
	for _, s := range snap.Sessions {
		if s == nil || s.ID == "" {
			continue
		}
		m.sessions[s.ID] = s
	}
	if _, ok := m.sessions[snap.ActiveID]; ok {
		m.activeID = snap.ActiveID
	}
	m.counter = snap.Counter
	return m
}

// CreateSession allocates a new empty session, makes it active and persists.
func (m *Manager) CreateSession() string {
	m.mu.Lock()
	m.counter++
	now := m.now()
	s := &Session{
		ID:             fmt.Sprintf("chat-%d", m.counter),
		Seq:            m.counter,
		Title:          "New chat",
		CreatedAt:      now,
		LastActivityAt: now,
	}
	m.sessions[s.ID] = s
	m.activeID = s.ID
	notify := cloneSession(s)
	m.persistLocked()
	m.mu.Unlock()

	m.notifyActive(notify)
	return s.ID
}

// SetActive switches the active session. Returns ErrNotFound for unknown ids.
func (m *Manager) SetActive(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	m.activeID = id
	notify := cloneSession(s)
	m.persistLocked()
	m.mu.Unlock()

	m.notifyActive(notify)
	return nil
}

// DeleteSession removes a session. If it was active, the remaining session
// with the latest activity becomes active (ties broken by newest creation);
// with no sessions left the manager enters the explicit empty state.
func (m *Manager) DeleteSession(id string) error {
	m.mu.Lock()
	if _, ok := m.sessions[id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.sessions, id)

	var notify *Session
	reassigned := false
	if m.activeID == id {
		reassigned = true
		m.activeID = ""
		if next := m.mostRecentLocked(); next != nil {
			m.activeID = next.ID
			notify = cloneSession(next)
		}
	}
	m.persistLocked()
	m.mu.Unlock()

	if reassigned {
		m.notifyActive(notify)
	}
	return nil
}

// AppendMessage appends one turn to the active session. Calling it with no
// active session is a caller-contract violation: it logs and does nothing.
func (m *Manager) AppendMessage(role Role, content, audioRef string) {
	m.mu.Lock()
	s, ok := m.sessions[m.activeID]
	if !ok {
		m.mu.Unlock()
		log.Printf("chat: append %s message dropped: no active session", role)
		return
	}
	now := m.now()
	s.Messages = append(s.Messages, Message{Role: role, Content: content, AudioRef: audioRef, Timestamp: now})
	s.LastActivityAt = now
	if role == RoleUser && s.Title == "New chat" {
		s.Title = deriveTitle(content)
	}
	m.persistLocked()
	m.mu.Unlock()
}

// BindDocument attaches an extracted document to the active session. The
// binding is permanent; rebinding an already bound session is rejected.
func (m *Manager) BindDocument(doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[m.activeID]
	if !ok {
		return ErrNoActiveSession
	}
	if s.Document != nil {
		return fmt.Errorf("chat: session %s already has document %s bound", s.ID, s.Document.FileID)
	}
	d := doc
	s.Document = &d
	s.Subtitle = deriveSubtitle(doc)
	s.LastActivityAt = m.now()
	m.persistLocked()
	return nil
}

// Active returns a copy of the active session, or nil in the empty state.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSession(m.sessions[m.activeID])
}

// Get returns a copy of the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(s), nil
}

// List returns copies of all sessions ordered by last activity, most recent
// first, ties broken by newest creation.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, cloneSession(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivityAt.Equal(out[j].LastActivityAt) {
			return out[i].LastActivityAt.After(out[j].LastActivityAt)
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}

// mostRecentLocked picks the session with the latest activity; ties go to the
// newest created. Callers must hold mu.
func (m *Manager) mostRecentLocked() *Session {
	var best *Session
	for _, s := range m.sessions {
		if best == nil {
			best = s
			continue
		}
		if s.LastActivityAt.After(best.LastActivityAt) {
			best = s
			continue
		}
		if s.LastActivityAt.Equal(best.LastActivityAt) && s.Seq > best.Seq {
			best = s
		}
	}
	return best
}

// persistLocked saves the current state. Persistence failures are logged and
// never propagate; the in-memory state stays authoritative.
func (m *Manager) persistLocked() {
	snap := &Snapshot{
		Sessions: make([]*Session, 0, len(m.sessions)),
		ActiveID: m.activeID,
		Counter:  m.counter,
	}
	for _, s := range m.sessions {
		snap.Sessions = append(snap.Sessions, cloneSession(s))
	}
	sort.Slice(snap.Sessions, func(i, j int) bool { return snap.Sessions[i].Seq < snap.Sessions[j].Seq })
	if err := m.store.Save(context.Background(), snap); err != nil {
		log.Printf("chat: persist failed: %v", err)
	}
}

func (m *Manager) notifyActive(s *Session) {
	if m.onActive != nil {
		m.onActive(s)
	}
}

func deriveTitle(content string) string {
	t := strings.TrimSpace(content)
	if t == "" {
		return "New chat"
	}
	if utf8.RuneCountInString(t) <= titleLimit {
		return t
	}
	runes := []rune(t)
	return string(runes[:titleLimit]) + "..."
}

func deriveSubtitle(doc Document) string {
	name := strings.TrimSpace(doc.Filename)
	if name == "" {
		name = doc.FileID
	}
	return name
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	if s.Document != nil {
		d := *s.Document
		cp.Document = &d
	}
	return &cp
}
