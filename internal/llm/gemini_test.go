package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewGeminiClient("test-key", "gemini-1.5-flash")
	c.BaseURL = srv.URL
	return c
}

func candidateResponse(text string) []byte {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return b
}

func TestChat_ReturnsAnswer(t *testing.T) {
	var gotPrompt string
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req.Contents[0].Parts[0].Text
		_, _ = w.Write(candidateResponse("  The report covers tides. "))
	})

	out, err := c.Chat(context.Background(), "What is this about?", "Tide tables for 2025.", "en-US", nil)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if out != "The report covers tides." {
		t.Fatalf("answer = %q", out)
	}
	if !strings.Contains(gotPrompt, "Tide tables for 2025.") {
		t.Fatalf("document context missing from prompt")
	}
	if !strings.Contains(gotPrompt, "Human: What is this about?") {
		t.Fatalf("message missing from prompt:\n%s", gotPrompt)
	}
}

func TestChat_UpstreamErrorPropagates(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	})
	if _, err := c.Chat(context.Background(), "hi", "", "en-US", nil); err == nil {
		t.Fatalf("expected upstream error")
	}
}

func TestChat_EmptyCandidatesYieldsPolicyNotice(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})
	out, err := c.Chat(context.Background(), "hi", "", "en-US", nil)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(out, "content policy") {
		t.Fatalf("answer = %q, want policy notice", out)
	}
}

func TestBuildChatPrompt_LanguageAndHistory(t *testing.T) {
	history := make([]Turn, 0, 14)
	for i := 0; i < 12; i++ {
		history = append(history, Turn{Role: "user", Content: "q" + string(rune('a'+i))})
	}
	history = append(history, Turn{Role: "assistant", Content: "final answer"})

	prompt := buildChatPrompt("siguiente", "contexto", "es-ES", history)

	if !strings.Contains(prompt, "Por favor responde en español.") {
		t.Fatalf("language instruction missing")
	}
	if strings.Contains(prompt, "qa") || strings.Contains(prompt, "qb") || strings.Contains(prompt, "qc") {
		t.Fatalf("history not capped to last %d turns:\n%s", historyKeep, prompt)
	}
	if !strings.Contains(prompt, "Assistant: final answer") {
		t.Fatalf("recent history missing")
	}
	if !strings.HasSuffix(prompt, "Assistant:") {
		t.Fatalf("prompt must end with the assistant cue")
	}
}

func TestBuildChatPrompt_TruncatesLongContext(t *testing.T) {
	long := strings.Repeat("x", maxContextChars+500)
	prompt := buildChatPrompt("q", long, "en-US", nil)
	if !strings.Contains(prompt, "[Document truncated for length...]") {
		t.Fatalf("expected truncation marker")
	}
	if strings.Contains(prompt, strings.Repeat("x", maxContextChars+1)) {
		t.Fatalf("context not truncated")
	}
}

func TestBuildChatPrompt_ContextLimitCountsCharacters(t *testing.T) {
	long := strings.Repeat("あ", maxContextChars+10)
	prompt := buildChatPrompt("q", long, "ja-JP", nil)
	if !utf8.ValidString(prompt) {
		t.Fatalf("truncation split a rune")
	}
	if !strings.Contains(prompt, strings.Repeat("あ", maxContextChars)+"\n\n[Document truncated for length...]") {
		t.Fatalf("expected a %d-character cut with marker", maxContextChars)
	}
	if strings.Contains(prompt, strings.Repeat("あ", maxContextChars+1)) {
		t.Fatalf("context truncated on bytes, not characters")
	}
}

func TestBuildChatPrompt_UnknownLanguageDefaultsToEnglish(t *testing.T) {
	prompt := buildChatPrompt("q", "", "xx-YY", nil)
	if !strings.Contains(prompt, "Please respond in English.") {
		t.Fatalf("unknown language must default to English")
	}
}

func TestGenerateSummary_TruncatesInput(t *testing.T) {
	var gotPrompt string
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req.Contents[0].Parts[0].Text
		_, _ = w.Write(candidateResponse("A short summary."))
	})

	long := strings.Repeat("y", maxSummaryInput+100)
	out, err := c.GenerateSummary(context.Background(), long, 300)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if out != "A short summary." {
		t.Fatalf("summary = %q", out)
	}
	if !strings.Contains(gotPrompt, "under 300 words") {
		t.Fatalf("word bound missing from prompt")
	}
	if strings.Contains(gotPrompt, strings.Repeat("y", maxSummaryInput+1)) {
		t.Fatalf("summary input not truncated")
	}
}
