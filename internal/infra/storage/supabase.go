package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/supabase-go"
)

// SupabaseStorage uploads audio objects to a Supabase storage bucket and
// returns their public URLs.
type SupabaseStorage struct {
	client  *supabase.Client
	baseURL string
	bucket  string
}

// NewSupabaseStorage constructs a bucket-backed audio store.
func NewSupabaseStorage(baseURL, serviceKey, bucket string) (*SupabaseStorage, error) {
	if baseURL == "" || serviceKey == "" || bucket == "" {
		return nil, ErrInvalidConfig
	}
	client, err := supabase.NewClient(baseURL, serviceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: create supabase client: %w", err)
	}
	return &SupabaseStorage{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
	}, nil
}

// SaveAudio implements Storage.
func (s *SupabaseStorage) SaveAudio(_ context.Context, name string, data []byte) (string, error) {
	if _, err := s.client.Storage.UploadFile(s.bucket, name, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("storage: upload to supabase: %w", err)
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, name), nil
}
