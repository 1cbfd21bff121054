package transcribe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *AssemblyAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewAssemblyAIClient("test-key")
	c.BaseURL = srv.URL
	c.PollInterval = 5 * time.Millisecond
	return c
}

func TestTranscribe_UploadCreatePoll(t *testing.T) {
	var polls int32
	var uploaded []byte
	var createReq transcriptRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		uploaded, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.test/blob1"})
	})
	mux.HandleFunc("/v2/transcript", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&createReq)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "t1", "status": "queued"})
	})
	mux.HandleFunc("/v2/transcript/t1", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&polls, 1) < 3 {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "t1", "status": "processing"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "t1", "status": "completed", "text": " hello world "})
	})

	c := newTestClient(t, mux)
	text, err := c.Transcribe(context.Background(), []byte("wav-bytes"), "de-DE")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("text = %q", text)
	}
	if string(uploaded) != "wav-bytes" {
		t.Fatalf("uploaded = %q", uploaded)
	}
	if createReq.AudioURL != "https://cdn.test/blob1" || createReq.LanguageCode != "de" {
		t.Fatalf("create request = %+v", createReq)
	}
	if atomic.LoadInt32(&polls) < 3 {
		t.Fatalf("expected polling until completion")
	}
}

func TestTranscribe_JobError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/upload", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.test/blob1"})
	})
	mux.HandleFunc("/v2/transcript", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "t1", "status": "queued"})
	})
	mux.HandleFunc("/v2/transcript/t1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "t1", "status": "error", "error": "unintelligible audio"})
	})

	c := newTestClient(t, mux)
	if _, err := c.Transcribe(context.Background(), []byte("x"), "en-US"); err == nil {
		t.Fatalf("expected job error")
	}
}

func TestTranscribe_EmptyPayloadRejected(t *testing.T) {
	c := NewAssemblyAIClient("test-key")
	if _, err := c.Transcribe(context.Background(), nil, "en-US"); err == nil {
		t.Fatalf("expected empty payload rejection")
	}
}

func TestTranscribe_ContextCancelStopsPolling(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/upload", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.test/blob1"})
	})
	mux.HandleFunc("/v2/transcript", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "t1", "status": "queued"})
	})
	mux.HandleFunc("/v2/transcript/t1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "t1", "status": "processing"})
	})

	c := newTestClient(t, mux)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Transcribe(ctx, []byte("x"), "en-US"); err == nil {
		t.Fatalf("expected context deadline error")
	}
}

func TestLanguageCode_Defaults(t *testing.T) {
	if got := languageCode("en-GB"); got != "en_uk" {
		t.Fatalf("en-GB = %q", got)
	}
	if got := languageCode("xx-YY"); got != "en_us" {
		t.Fatalf("unknown = %q", got)
	}
}
