package audio

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// HTTPSource fetches audio references over HTTP. Failures are classified into
// the playback error taxonomy so callers can surface the right message.
type HTTPSource struct {
	client *http.Client
}

// NewHTTPSource creates a source with a bounded request timeout. The timeout
// covers connection and headers; body streaming is bounded by the playback
// context instead.
func NewHTTPSource() *HTTPSource {
	return &HTTPSource{client: &http.Client{Timeout: 2 * time.Minute}}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, playbackErr(KindFormat, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, playbackErr(KindNetwork, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, playbackErr(KindPermission, fmt.Errorf("status %d fetching %s", resp.StatusCode, ref))
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, playbackErr(KindNetwork, fmt.Errorf("status %d fetching %s", resp.StatusCode, ref))
	}
	if !playableContentType(resp.Header.Get("Content-Type")) {
		resp.Body.Close()
		return nil, playbackErr(KindFormat, fmt.Errorf("unplayable content type %q for %s", resp.Header.Get("Content-Type"), ref))
	}
	return resp.Body, nil
}

func playableContentType(ct string) bool {
	if ct == "" {
		// Servers that omit the header still usually serve audio; let the
		// decoder be the judge.
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "audio/") || mt == "application/octet-stream" || mt == "binary/octet-stream"
}
