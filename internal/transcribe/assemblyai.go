// Package transcribe converts recorded utterances to text with the
// AssemblyAI prerecorded transcription API.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AssemblyAIClient uploads captured audio and polls the transcript until it
// completes.
type AssemblyAIClient struct {
	HTTPClient   *http.Client
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
}

// NewAssemblyAIClient creates a prerecorded transcription client.
func NewAssemblyAIClient(apiKey string) *AssemblyAIClient {
	return &AssemblyAIClient{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		APIKey:       apiKey,
		BaseURL:      "https://api.assemblyai.com",
		PollInterval: 500 * time.Millisecond,
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL     string `json:"audio_url"`
	LanguageCode string `json:"language_code,omitempty"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// languageCodes maps product language tags to AssemblyAI language codes.
var languageCodes = map[string]string{
	"en-US": "en_us",
	"en-GB": "en_uk",
	"es-ES": "es",
	"es-MX": "es",
	"fr-FR": "fr",
	"de-DE": "de",
	"it-IT": "it",
	"pt-BR": "pt",
	"ja-JP": "ja",
	"ko-KR": "ko",
	"zh-CN": "zh",
	"hi-IN": "hi",
	"nl-NL": "nl",
	"ru-RU": "ru",
}

func languageCode(language string) string {
	if code, ok := languageCodes[language]; ok {
		return code
	}
	return "en_us"
}

// Transcribe uploads the audio bytes, creates a transcript job and polls it
// to completion. Blocks until done, failed, or ctx expires.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audioBytes []byte, language string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("assemblyai: api key missing")
	}
	if len(audioBytes) == 0 {
		return "", fmt.Errorf("assemblyai: empty audio payload")
	}

	uploadURL, err := c.upload(ctx, audioBytes)
	if err != nil {
		return "", err
	}
	id, err := c.createTranscript(ctx, uploadURL, language)
	if err != nil {
		return "", err
	}
	return c.poll(ctx, id)
}

func (c *AssemblyAIClient) upload(ctx context.Context, audioBytes []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v2/upload", bytes.NewReader(audioBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assemblyai: upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("assemblyai: upload status=%d body=%s", resp.StatusCode, string(b))
	}
	var up uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&up); err != nil {
		return "", fmt.Errorf("assemblyai: decode upload response: %w", err)
	}
	if up.UploadURL == "" {
		return "", fmt.Errorf("assemblyai: upload returned no url")
	}
	return up.UploadURL, nil
}

func (c *AssemblyAIClient) createTranscript(ctx context.Context, audioURL, language string) (string, error) {
	buf, _ := json.Marshal(transcriptRequest{AudioURL: audioURL, LanguageCode: languageCode(language)})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v2/transcript", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assemblyai: create transcript: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("assemblyai: create transcript status=%d body=%s", resp.StatusCode, string(b))
	}
	var tr transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("assemblyai: decode transcript response: %w", err)
	}
	if tr.ID == "" {
		return "", fmt.Errorf("assemblyai: transcript created without id")
	}
	return tr.ID, nil
}

func (c *AssemblyAIClient) poll(ctx context.Context, id string) (string, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		tr, err := c.getTranscript(ctx, id)
		if err != nil {
			return "", err
		}
		switch tr.Status {
		case "completed":
			return strings.TrimSpace(tr.Text), nil
		case "error":
			return "", fmt.Errorf("assemblyai: transcription failed: %s", tr.Error)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *AssemblyAIClient) getTranscript(ctx context.Context, id string) (*transcriptResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assemblyai: poll transcript: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("assemblyai: poll status=%d", resp.StatusCode)
	}
	var tr transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("assemblyai: decode poll response: %w", err)
	}
	return &tr, nil
}
