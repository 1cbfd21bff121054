package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

type memoryAudioStore struct {
	saved map[string][]byte
}

func newMemoryAudioStore() *memoryAudioStore {
	return &memoryAudioStore{saved: map[string][]byte{}}
}

func (s *memoryAudioStore) SaveAudio(_ context.Context, name string, data []byte) (string, error) {
	s.saved[name] = data
	return "/audio/" + name, nil
}

func newTestMurf(t *testing.T, handler http.Handler) (*MurfClient, *memoryAudioStore, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := newMemoryAudioStore()
	c := NewMurfClient("test-key", store)
	c.baseURL = srv.URL
	return c, store, srv
}

func TestMurfSynthesize_DownloadAndStore(t *testing.T) {
	var gotReq murfGenerateRequest
	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/v1/speech/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]string{"audioFile": base + "/generated.mp3"})
	})
	mux.HandleFunc("/generated.mp3", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	})
	c, store, srv := newTestMurf(t, mux)
	base = srv.URL

	ref, err := c.Synthesize(context.Background(), "hello world", "en-US-julia", 0.9)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !strings.HasPrefix(ref, "/audio/murf_") || !strings.HasSuffix(ref, ".mp3") {
		t.Fatalf("ref = %q", ref)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d objects, want 1", len(store.saved))
	}
	for _, data := range store.saved {
		if string(data) != "mp3-bytes" {
			t.Fatalf("stored %q", data)
		}
	}
	if gotReq.VoiceID != "en-US-julia" || gotReq.Format != "MP3" {
		t.Fatalf("request = %+v", gotReq)
	}
	if gotReq.Rate != -10 {
		t.Fatalf("rate = %d, want -10 for speed 0.9", gotReq.Rate)
	}
}

func TestMurfSynthesize_TruncatesLongText(t *testing.T) {
	var gotReq murfGenerateRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/speech/generate", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]string{"encodedAudio": "bXAzLWJ5dGVz"})
	})
	c, _, _ := newTestMurf(t, mux)

	long := strings.Repeat("a", 4000)
	if _, err := c.Synthesize(context.Background(), long, "en-US-julia", 1.0); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	want := strings.Repeat("a", maxSynthesisChars) + "..."
	if gotReq.Text != want {
		t.Fatalf("text length = %d, want %d with ellipsis", len(gotReq.Text), len(want))
	}
}

func TestMurfSynthesize_TruncationCountsCharacters(t *testing.T) {
	var gotReq murfGenerateRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/speech/generate", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(map[string]string{"encodedAudio": "bXAzLWJ5dGVz"})
	})
	c, _, _ := newTestMurf(t, mux)

	long := strings.Repeat("あ", maxSynthesisChars+50)
	if _, err := c.Synthesize(context.Background(), long, "ja-JP-kenji", 1.0); err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !utf8.ValidString(gotReq.Text) {
		t.Fatalf("truncation split a rune")
	}
	if want := strings.Repeat("あ", maxSynthesisChars) + "..."; gotReq.Text != want {
		t.Fatalf("text runes = %d, want %d plus ellipsis", utf8.RuneCountInString(gotReq.Text), maxSynthesisChars)
	}
}

func TestMurfSynthesize_TextArtifactIsNoAudio(t *testing.T) {
	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/v1/speech/generate", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"audioFile": base + "/oops.txt"})
	})
	mux.HandleFunc("/oops.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "synthesis quota exceeded")
	})
	c, _, srv := newTestMurf(t, mux)
	base = srv.URL

	_, err := c.Synthesize(context.Background(), "hello", "en-US-julia", 1.0)
	if !errors.Is(err, ErrNoAudio) {
		t.Fatalf("err = %v, want ErrNoAudio", err)
	}
}

func TestMurfSynthesize_EmptyResponseIsNoAudio(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/speech/generate", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})
	c, _, _ := newTestMurf(t, mux)

	if _, err := c.Synthesize(context.Background(), "hello", "en-US-julia", 1.0); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("err = %v, want ErrNoAudio", err)
	}
}

func TestMurfListVoices(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/speech/voices", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"voices": []map[string]string{
			{"voiceId": "fr-FR-louis", "displayName": "Louis", "locale": "fr-FR", "gender": "male"},
			{"voiceId": "", "displayName": "broken"},
		}})
	})
	c, _, _ := newTestMurf(t, mux)

	voices, err := c.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(voices) != 1 || voices[0].VoiceID != "fr-FR-louis" || voices[0].Language != "fr-FR" {
		t.Fatalf("voices = %+v", voices)
	}
}
