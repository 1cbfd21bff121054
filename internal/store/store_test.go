package store

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/chadiek/talkpdf/internal/chat"
)

func sampleSnapshot() *chat.Snapshot {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &chat.Snapshot{
		Sessions: []*chat.Session{
			{
				ID:    "chat-1",
				Seq:   1,
				Title: "What is this about?",
				Messages: []chat.Message{
					{Role: chat.RoleUser, Content: "What is this about?", Timestamp: t0},
					{Role: chat.RoleAssistant, Content: "A report on tides.", AudioRef: "/audio/a1.mp3", Timestamp: t0.Add(time.Second)},
				},
				Document:       &chat.Document{FileID: "doc1", Filename: "tides.pdf", ExtractedLength: 900, Summary: "tides"},
				CreatedAt:      t0,
				LastActivityAt: t0.Add(time.Second),
			},
			{
				ID:             "chat-2",
				Seq:            2,
				Title:          "New chat",
				CreatedAt:      t0.Add(2 * time.Second),
				LastActivityAt: t0.Add(2 * time.Second),
			},
		},
		ActiveID: "chat-1",
		Counter:  2,
	}
}

func roundTrip(t *testing.T, s chat.Store) {
	t.Helper()
	ctx := context.Background()
	want := sampleSnapshot()
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatalf("expected snapshot, got nil")
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	roundTrip(t, NewMemoryStore())
}

func TestMemoryStore_EmptyLoad(t *testing.T) {
	snap, err := NewMemoryStore().Load(context.Background())
	if err != nil || snap != nil {
		t.Fatalf("expected nil,nil got %v,%v", snap, err)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	roundTrip(t, NewFileStore(path))
}

func TestFileStore_MissingFileLoadsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	snap, err := s.Load(context.Background())
	if err != nil || snap != nil {
		t.Fatalf("expected nil,nil got %v,%v", snap, err)
	}
}

func TestFileStore_CorruptBlobErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected decode error for corrupt blob")
	}
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "sessions.json"))
	if err := s.Save(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "sessions.json" {
		t.Fatalf("expected only sessions.json, got %v", entries)
	}
}

func TestOpen_DriverSelection(t *testing.T) {
	if _, err := Open(DriverMemory); err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, err := Open(DriverFile); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for file without path, got %v", err)
	}
	if _, err := Open(DriverFile, WithPath(filepath.Join(t.TempDir(), "s.json"))); err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, err := Open(DriverRedis); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for redis without client, got %v", err)
	}
	if _, err := Open(Driver("bolt")); err != ErrInvalidDriver {
		t.Fatalf("expected ErrInvalidDriver, got %v", err)
	}
}
