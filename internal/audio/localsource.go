package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// RefSource resolves both absolute http(s) references and local /audio/...
// references backed by a directory.
type RefSource struct {
	HTTP *HTTPSource
	Dir  string
}

// NewRefSource creates a source serving local refs from dir and remote refs
// over HTTP.
func NewRefSource(dir string) *RefSource {
	return &RefSource{HTTP: NewHTTPSource(), Dir: dir}
}

// Fetch implements Source.
func (s *RefSource) Fetch(ctx context.Context, ref string) (io.ReadCloser, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return s.HTTP.Fetch(ctx, ref)
	}
	if s.Dir == "" {
		return nil, playbackErr(KindNetwork, fmt.Errorf("no local audio directory for ref %s", ref))
	}
	name := path.Base(ref)
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		if os.IsPermission(err) {
			return nil, playbackErr(KindPermission, err)
		}
		return nil, playbackErr(KindNetwork, err)
	}
	return f, nil
}
