package docs

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, _ []byte) (string, error) {
	return f.text, f.err
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) GenerateSummary(_ context.Context, _ string, _ int) (string, error) {
	return f.summary, f.err
}

func TestUpload_RegistersDocument(t *testing.T) {
	s := NewService(&fakeExtractor{text: "tide tables for 2025"}, &fakeSummarizer{summary: "tides"})

	info, err := s.Upload(context.Background(), "tides.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if info.FileID == "" || info.Filename != "tides.pdf" || info.Summary != "tides" {
		t.Fatalf("info = %+v", info)
	}
	if info.ExtractedLength != len("tide tables for 2025") {
		t.Fatalf("extracted length = %d", info.ExtractedLength)
	}

	text, err := s.Context(info.FileID)
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if text != "tide tables for 2025" {
		t.Fatalf("context = %q", text)
	}
}

func TestUpload_Validation(t *testing.T) {
	s := NewService(&fakeExtractor{text: "x"}, nil)
	ctx := context.Background()

	if _, err := s.Upload(ctx, "doc.pdf", nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty: %v", err)
	}
	if _, err := s.Upload(ctx, "doc.txt", []byte("x")); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("wrong type: %v", err)
	}
	big := make([]byte, MaxFileSize+1)
	if _, err := s.Upload(ctx, "doc.pdf", big); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("oversized: %v", err)
	}
}

func TestUpload_SummaryFailureIsNonFatal(t *testing.T) {
	s := NewService(&fakeExtractor{text: "content"}, &fakeSummarizer{err: errors.New("quota")})
	info, err := s.Upload(context.Background(), "doc.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if info.Summary != "" {
		t.Fatalf("summary = %q, want empty on failure", info.Summary)
	}
}

func TestContext_UnknownID(t *testing.T) {
	s := NewService(&fakeExtractor{}, nil)
	if _, err := s.Context("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCleanupOld(t *testing.T) {
	s := NewService(&fakeExtractor{text: "x"}, nil)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	old, err := s.Upload(context.Background(), "old.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	s.now = func() time.Time { return base.Add(3 * time.Hour) }
	fresh, err := s.Upload(context.Background(), "fresh.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if removed := s.CleanupOld(2 * time.Hour); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := s.Context(old.FileID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old doc still present")
	}
	if _, err := s.Context(fresh.FileID); err != nil {
		t.Fatalf("fresh doc dropped: %v", err)
	}
}

func TestHTTPExtractor_MultipartRequest(t *testing.T) {
	var gotFilename string
	var gotBytes []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mt, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || !strings.HasPrefix(mt, "multipart/") {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		_ = params
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		gotFilename = hdr.Filename
		buf := make([]byte, hdr.Size)
		_, _ = f.Read(buf)
		gotBytes = buf
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "extracted text"})
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL)
	text, err := e.Extract(context.Background(), "tides.pdf", []byte("%PDF-1.4 data"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "extracted text" {
		t.Fatalf("text = %q", text)
	}
	if gotFilename != "tides.pdf" || string(gotBytes) != "%PDF-1.4 data" {
		t.Fatalf("server saw %q / %q", gotFilename, gotBytes)
	}
}
