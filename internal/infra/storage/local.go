package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// LocalDirStorage writes audio files into a directory served by the HTTP
// layer under /audio.
type LocalDirStorage struct {
	dir    string
	prefix string
	now    func() time.Time
}

// NewLocalDirStorage creates the directory if needed.
func NewLocalDirStorage(dir string) (*LocalDirStorage, error) {
	if dir == "" {
		return nil, ErrInvalidConfig
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	return &LocalDirStorage{dir: dir, prefix: "/audio", now: time.Now}, nil
}

// Dir returns the backing directory, for the static file route.
func (s *LocalDirStorage) Dir() string { return s.dir }

// SaveAudio implements Storage.
func (s *LocalDirStorage) SaveAudio(_ context.Context, name string, data []byte) (string, error) {
	name = filepath.Base(name)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", path, err)
	}
	return s.prefix + "/" + name, nil
}

// CleanupOld removes audio files older than maxAge and returns how many were
// deleted.
func (s *LocalDirStorage) CleanupOld(maxAge time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Printf("storage: cleanup readdir: %v", err)
		return 0
	}
	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
				log.Printf("storage: cleanup remove %s: %v", e.Name(), err)
				continue
			}
			removed++
		}
	}
	return removed
}

// StartCleanup runs CleanupOld on the given interval until ctx is cancelled.
func (s *LocalDirStorage) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.CleanupOld(maxAge); n > 0 {
					log.Printf("storage: cleaned up %d old audio files", n)
				}
			}
		}
	}()
}
