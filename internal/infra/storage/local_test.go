package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLocalDirStorage_SaveAndRef(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalDirStorage(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ref, err := s.SaveAudio(context.Background(), "murf_1.mp3", []byte("mp3"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ref != "/audio/murf_1.mp3" {
		t.Fatalf("ref = %q", ref)
	}
	data, err := os.ReadFile(filepath.Join(dir, "murf_1.mp3"))
	if err != nil || string(data) != "mp3" {
		t.Fatalf("file = %q, %v", data, err)
	}
}

func TestLocalDirStorage_StripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalDirStorage(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ref, err := s.SaveAudio(context.Background(), "../escape.mp3", []byte("x"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ref != "/audio/escape.mp3" {
		t.Fatalf("ref = %q", ref)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.mp3")); err != nil {
		t.Fatalf("object missing inside the directory: %v", err)
	}
}

func TestLocalDirStorage_CleanupOld(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalDirStorage(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.SaveAudio(context.Background(), "old.mp3", []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.SaveAudio(context.Background(), "fresh.mp3", []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	past := time.Now().Add(-3 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.mp3"), past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if removed := s.CleanupOld(2 * time.Hour); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.mp3")); !os.IsNotExist(err) {
		t.Fatalf("old file still present")
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh.mp3")); err != nil {
		t.Fatalf("fresh file removed: %v", err)
	}
}

func TestNewLocalDirStorage_RequiresDir(t *testing.T) {
	if _, err := NewLocalDirStorage(""); err != ErrInvalidConfig {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}
