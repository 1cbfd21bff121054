// Package docs handles document upload: validation, text extraction through
// the external extractor service, summary generation, and the in-memory
// registry of extracted text used as answer context.
package docs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxFileSize bounds uploads to 10MB.
const MaxFileSize = 10 << 20

var (
	ErrTooLarge = errors.New("docs: file exceeds the 10MB limit")
	ErrNotPDF   = errors.New("docs: only PDF files are accepted")
	ErrEmpty    = errors.New("docs: empty file")
	ErrNotFound = errors.New("docs: document not found")
)

// Info is the metadata returned after a successful upload+extraction.
type Info struct {
	FileID          string `json:"file_id"`
	Filename        string `json:"filename"`
	ExtractedLength int    `json:"extracted_length"`
	Summary         string `json:"summary"`
}

// Extractor converts PDF bytes to plain text.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// Summarizer produces a short description of extracted text.
type Summarizer interface {
	GenerateSummary(ctx context.Context, text string, maxWords int) (string, error)
}

type record struct {
	text        string
	filename    string
	extractedAt time.Time
}

// Service validates uploads and keeps extracted text in memory keyed by file
// id for the lifetime of the process.
type Service struct {
	extractor  Extractor
	summarizer Summarizer

	mu    sync.Mutex
	texts map[string]record
	now   func() time.Time
}

// NewService wires the extractor and summarizer. summarizer may be nil; the
// summary field is then left empty.
func NewService(extractor Extractor, summarizer Summarizer) *Service {
	return &Service{
		extractor:  extractor,
		summarizer: summarizer,
		texts:      map[string]record{},
		now:        time.Now,
	}
}

// Upload validates the file, extracts its text and registers it under a
// fresh file id.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmpty
	}
	if len(data) > MaxFileSize {
		return Info{}, ErrTooLarge
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return Info{}, ErrNotPDF
	}

	text, err := s.extractor.Extract(ctx, filename, data)
	if err != nil {
		return Info{}, fmt.Errorf("docs: extract %s: %w", filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return Info{}, fmt.Errorf("docs: no text extracted from %s", filename)
	}

	summary := ""
	if s.summarizer != nil {
		summary, err = s.summarizer.GenerateSummary(ctx, text, 300)
		if err != nil {
			// A missing summary never blocks the upload.
			log.Printf("docs: summary generation failed for %s: %v", filename, err)
			summary = ""
		}
	}

	fileID := uuid.NewString()
	s.mu.Lock()
	s.texts[fileID] = record{text: text, filename: filename, extractedAt: s.now()}
	s.mu.Unlock()

	return Info{
		FileID:          fileID,
		Filename:        filename,
		ExtractedLength: len(text),
		Summary:         summary,
	}, nil
}

// Context returns the extracted text for a file id.
func (s *Service) Context(fileID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.texts[fileID]
	if !ok {
		return "", ErrNotFound
	}
	return rec.text, nil
}

// CleanupOld drops registry entries older than maxAge and returns how many
// were removed.
func (s *Service) CleanupOld(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.texts {
		if rec.extractedAt.Before(cutoff) {
			delete(s.texts, id)
			removed++
		}
	}
	return removed
}
