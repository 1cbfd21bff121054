package docs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// HTTPExtractor posts the PDF to the extraction service as a multipart form
// and returns the extracted plain text.
type HTTPExtractor struct {
	HTTPClient *http.Client
	URL        string
}

// NewHTTPExtractor creates an extractor client for the given endpoint.
func NewHTTPExtractor(url string) *HTTPExtractor {
	return &HTTPExtractor{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		URL:        url,
	}
}

type extractResponse struct {
	Text string `json:"text"`
}

// Extract implements Extractor.
func (e *HTTPExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extractor: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("extractor: status=%d body=%s", resp.StatusCode, string(b))
	}
	var er extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return "", fmt.Errorf("extractor: decode response: %w", err)
	}
	return er.Text, nil
}
