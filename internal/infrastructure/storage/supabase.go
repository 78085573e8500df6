package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// BlobStore is what the photo services need from object storage.
type BlobStore interface {
	Upload(ctx context.Context, path, contentType string, data []byte) error
	Remove(ctx context.Context, paths []string) error
	PublicURL(path string) string
}

var ErrNotConfigured = errors.New("storage: SUPABASE_URL and SUPABASE_SECRET_KEY must be set")

// SupabaseStore is a BlobStore backed by the Supabase Storage REST API, scoped to one bucket.
type SupabaseStore struct {
	baseURL   string
	bucket    string
	secretKey string
	client    *resty.Client
}

// NewSupabaseStore builds a store for bucket. The secret must be the service_role key.
// Requests are never retried: an upload that times out may still have landed.
func NewSupabaseStore(baseURL, secretKey, bucket string) *SupabaseStore {
	base := strings.TrimRight(baseURL, "/")
	client := resty.New().
		SetBaseURL(base+"/storage/v1").
		SetTimeout(30*time.Second).
		SetHeader("apikey", secretKey).
		SetAuthToken(secretKey)
	return &SupabaseStore{baseURL: base, bucket: bucket, secretKey: secretKey, client: client}
}

func (s *SupabaseStore) configured() bool {
	return s.baseURL != "" && s.secretKey != ""
}

// Upload stores data at path. Existing objects are not overwritten.
func (s *SupabaseStore) Upload(ctx context.Context, path, contentType string, data []byte) error {
	if !s.configured() {
		return ErrNotConfigured
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("x-upsert", "false").
		SetHeader("cache-control", "max-age=3600").
		SetBody(data).
		Post("/object/" + s.bucket + "/" + escapePath(path))
	if err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("storage upload: status %d body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

type removeRequest struct {
	Prefixes []string `json:"prefixes"`
}

// Remove deletes every object in paths with one batch call. Paths that do not exist are ignored.
func (s *SupabaseStore) Remove(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if !s.configured() {
		return ErrNotConfigured
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(removeRequest{Prefixes: paths}).
		Delete("/object/" + s.bucket)
	if err != nil {
		return fmt.Errorf("storage remove %d objects: %w", len(paths), err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("storage remove %d objects: status %d body: %s", len(paths), resp.StatusCode(), resp.String())
	}
	return nil
}

// PublicURL returns the public object URL for path.
func (s *SupabaseStore) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, escapePath(path))
}

// Ping checks that the bucket is reachable; used by the health endpoint.
func (s *SupabaseStore) Ping(ctx context.Context) error {
	if !s.configured() {
		return ErrNotConfigured
	}
	resp, err := s.client.R().SetContext(ctx).Get("/bucket/" + s.bucket)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("storage ping: status %d", resp.StatusCode())
	}
	return nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
