package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxSynthesisChars stays under the provider's 3000 character request limit.
const maxSynthesisChars = 2900

// MurfClient drives the Murf speech REST API and persists generated audio
// through an AudioStore so callers receive a servable reference.
type MurfClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	store   AudioStore
}

// NewMurfClient creates a Murf client. The store receives downloaded audio.
func NewMurfClient(apiKey string, store AudioStore) *MurfClient {
	return &MurfClient{
		apiKey:  apiKey,
		baseURL: "https://api.murf.ai",
		client:  &http.Client{Timeout: 60 * time.Second},
		store:   store,
	}
}

type murfGenerateRequest struct {
	Text        string `json:"text"`
	VoiceID     string `json:"voiceId"`
	Format      string `json:"format"`
	ChannelType string `json:"channelType"`
	SampleRate  int    `json:"sampleRate"`
	Rate        int    `json:"rate,omitempty"`
}

type murfGenerateResponse struct {
	AudioFile    string `json:"audioFile"`
	EncodedAudio string `json:"encodedAudio"`
}

// Synthesize implements Provider. Text beyond the provider limit is truncated
// with an ellipsis before the request.
func (m *MurfClient) Synthesize(ctx context.Context, text, voiceID string, speed float64) (string, error) {
	if m.apiKey == "" {
		return "", fmt.Errorf("murf: api key missing")
	}
	// The provider limit counts characters, not bytes.
	if runes := []rune(text); len(runes) > maxSynthesisChars {
		text = string(runes[:maxSynthesisChars]) + "..."
		log.Printf("murf: text truncated to %d characters", maxSynthesisChars)
	}

	reqBody := murfGenerateRequest{
		Text:        text,
		VoiceID:     voiceID,
		Format:      "MP3",
		ChannelType: "STEREO",
		SampleRate:  44100,
		Rate:        speedToRate(speed),
	}
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/speech/generate", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("api-key", m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("murf: generate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("murf: generate status=%d body=%s", resp.StatusCode, string(b))
	}

	var gen murfGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("murf: decode generate response: %w", err)
	}

	var audio []byte
	switch {
	case gen.AudioFile != "":
		audio, err = m.download(ctx, gen.AudioFile)
		if err != nil {
			return "", err
		}
	case gen.EncodedAudio != "":
		audio, err = base64.StdEncoding.DecodeString(gen.EncodedAudio)
		if err != nil {
			return "", fmt.Errorf("murf: decode base64 audio: %w", err)
		}
	default:
		return "", ErrNoAudio
	}
	if len(audio) == 0 {
		return "", ErrNoAudio
	}

	name := fmt.Sprintf("murf_%s.mp3", uuid.NewString())
	ref, err := m.store.SaveAudio(ctx, name, audio)
	if err != nil {
		return "", fmt.Errorf("murf: store audio: %w", err)
	}
	return ref, nil
}

func (m *MurfClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("murf: download audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("murf: download status=%d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "audio/") && !strings.Contains(ct, "octet-stream") {
		// A text artifact in place of audio means synthesis did not happen.
		return nil, ErrNoAudio
	}
	return io.ReadAll(resp.Body)
}

// speedToRate maps a relative speed multiplier to the provider's percent
// rate adjustment, clamped to its accepted range.
func speedToRate(speed float64) int {
	if speed == 0 {
		return 0
	}
	rate := int(math.Round((speed - 1.0) * 100))
	if rate > 50 {
		rate = 50
	}
	if rate < -50 {
		rate = -50
	}
	return rate
}

type murfVoicesResponse struct {
	Voices []struct {
		VoiceID     string `json:"voiceId"`
		DisplayName string `json:"displayName"`
		Locale      string `json:"locale"`
		Gender      string `json:"gender"`
		Accent      string `json:"accent"`
		Style       string `json:"style"`
		Description string `json:"description"`
	} `json:"voices"`
}

// ListVoices implements Lister against the provider's voice catalog.
func (m *MurfClient) ListVoices(ctx context.Context) ([]VoiceProfile, error) {
	if m.apiKey == "" {
		return nil, fmt.Errorf("murf: api key missing")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/v1/speech/voices", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("api-key", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("murf: list voices: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("murf: list voices status=%d", resp.StatusCode)
	}
	var payload murfVoicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("murf: decode voices: %w", err)
	}
	out := make([]VoiceProfile, 0, len(payload.Voices))
	for _, v := range payload.Voices {
		if v.VoiceID == "" {
			continue
		}
		lang := v.Locale
		if lang == "" {
			lang = "en-US"
		}
		out = append(out, VoiceProfile{
			VoiceID:     v.VoiceID,
			Name:        v.DisplayName,
			Language:    lang,
			Gender:      v.Gender,
			Accent:      v.Accent,
			Style:       v.Style,
			Description: v.Description,
		})
	}
	return out, nil
}
