package uploads

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHost(t *testing.T, handler http.HandlerFunc) *CloudinaryClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &CloudinaryClient{
		BaseURL:      srv.URL,
		CloudName:    "demo",
		UploadPreset: "ml_default",
		APIKey:       "key",
		APISecret:    "secret",
		Now:          func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func TestUpload_SendsDataURLAndPreset(t *testing.T) {
	c := newHost(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ml_default", r.PostForm.Get("upload_preset"))
		assert.True(t, strings.HasPrefix(r.PostForm.Get("file"), "data:image/png;base64,"))
		w.Write([]byte(`{"secure_url":"https://res.example.com/demo/rex.png","public_id":"rex"}`))
	})

	up, err := c.Upload(context.Background(), Image{Data: []byte("png-bytes"), MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "https://res.example.com/demo/rex.png", up.SecureURL)
	assert.Equal(t, "rex", up.PublicID)
}

func TestUpload_NoSecureURL(t *testing.T) {
	c := newHost(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"public_id":"x"}`))
	})
	_, err := c.Upload(context.Background(), Image{Data: []byte("x")})
	assert.ErrorIs(t, err, ErrNoSecureURL)
}

func TestUpload_HostError(t *testing.T) {
	c := newHost(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	})
	_, err := c.Upload(context.Background(), Image{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestUpload_NotConfigured(t *testing.T) {
	c := &CloudinaryClient{}
	_, err := c.Upload(context.Background(), Image{Data: []byte("x")})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, c.Destroy(context.Background(), "x"), ErrNotConfigured)
}

func TestUpload_EmptyImage(t *testing.T) {
	c := &CloudinaryClient{CloudName: "demo"}
	_, err := c.Upload(context.Background(), Image{})
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestDestroy_Signed(t *testing.T) {
	c := newHost(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/destroy", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "rex", r.PostForm.Get("public_id"))
		assert.Equal(t, "key", r.PostForm.Get("api_key"))
		assert.Equal(t, "1700000000", r.PostForm.Get("timestamp"))
		want := Sign(map[string]string{"public_id": "rex", "timestamp": "1700000000"}, "secret")
		assert.Equal(t, want, r.PostForm.Get("signature"))
		w.Write([]byte(`{"result":"ok"}`))
	})
	require.NoError(t, c.Destroy(context.Background(), "rex"))
}

func TestSign_SortsKeys(t *testing.T) {
	a := Sign(map[string]string{"timestamp": "1", "public_id": "p"}, "s")
	b := Sign(map[string]string{"public_id": "p", "timestamp": "1"}, "s")
	assert.Equal(t, a, b)
	assert.Len(t, a, 40)
}

func TestDataURL_DefaultMime(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,aGk=", Image{Data: []byte("hi")}.DataURL())
}
