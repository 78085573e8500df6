package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method      string
	path        string
	contentType string
	auth        string
	apikey      string
	body        []byte
}

func newTestServer(t *testing.T, status int) (*httptest.Server, *[]recorded) {
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			method:      r.Method,
			path:        r.URL.EscapedPath(),
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			apikey:      r.Header.Get("apikey"),
			body:        b,
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"Key":"ok"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestUpload_SendsObjectToBucket(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK)
	s := NewSupabaseStore(srv.URL+"/", "service-key", "service-photos")

	err := s.Upload(context.Background(), "u1/l1/a1/my photo.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodPost, c.method)
	assert.Equal(t, "/storage/v1/object/service-photos/u1/l1/a1/my%20photo.png", c.path)
	assert.Equal(t, "image/png", c.contentType)
	assert.Equal(t, "Bearer service-key", c.auth)
	assert.Equal(t, "service-key", c.apikey)
	assert.Equal(t, "png-bytes", string(c.body))
}

func TestUpload_ErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest)
	s := NewSupabaseStore(srv.URL, "service-key", "service-photos")

	err := s.Upload(context.Background(), "a.png", "image/png", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestRemove_SingleBatchCall(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK)
	s := NewSupabaseStore(srv.URL, "service-key", "service-photos")

	require.NoError(t, s.Remove(context.Background(), nil))
	assert.Empty(t, *calls)

	require.NoError(t, s.Remove(context.Background(), []string{"a/1.png", "a/my 2.png"}))
	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodDelete, c.method)
	assert.Equal(t, "/storage/v1/object/service-photos", c.path)
	assert.Equal(t, "application/json", c.contentType)
	assert.JSONEq(t, `{"prefixes":["a/1.png","a/my 2.png"]}`, string(c.body))
}

func TestRemove_ErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError)
	s := NewSupabaseStore(srv.URL, "service-key", "service-photos")

	err := s.Remove(context.Background(), []string{"a/1.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestUpload_TransportFailureIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_, _ = io.ReadAll(r.Body)
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	t.Cleanup(srv.Close)
	s := NewSupabaseStore(srv.URL, "service-key", "service-photos")

	err := s.Upload(context.Background(), "a.png", "image/png", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestUpload_ServerErrorIsNotRetried(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusServiceUnavailable)
	s := NewSupabaseStore(srv.URL, "service-key", "service-photos")

	require.Error(t, s.Upload(context.Background(), "a.png", "image/png", []byte("x")))
	assert.Len(t, *calls, 1)
}

func TestRemove_MissingObjectIsNotAnError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound)
	s := NewSupabaseStore(srv.URL, "service-key", "service-photos")
	assert.NoError(t, s.Remove(context.Background(), []string{"gone.png"}))
}

func TestPublicURL(t *testing.T) {
	s := NewSupabaseStore("https://example.supabase.co/", "k", "service-photos")
	assert.Equal(t, "https://example.supabase.co/storage/v1/object/public/service-photos/u/l/a/x.png", s.PublicURL("u/l/a/x.png"))
}

func TestNotConfigured(t *testing.T) {
	s := NewSupabaseStore("", "", "service-photos")
	assert.ErrorIs(t, s.Upload(context.Background(), "a", "image/png", nil), ErrNotConfigured)
	assert.ErrorIs(t, s.Remove(context.Background(), []string{"a"}), ErrNotConfigured)
	assert.ErrorIs(t, s.Ping(context.Background()), ErrNotConfigured)
}
