package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUploader(t *testing.T, handler http.HandlerFunc) *CloudinaryUploader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u := NewCloudinaryUploader("demo", "unsigned")
	require.NoError(t, u.err)
	u.cld.Upload.Config.API.UploadPrefix = srv.URL
	return u
}

func TestUploadVideo(t *testing.T) {
	u := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/demo/video/upload"), r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "unsigned", r.FormValue("upload_preset"))

		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "fake video", string(data))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/video/upload/v1/take1.mp4","public_id":"take1","duration":42.5}`))
	})

	res, err := u.UploadVideo(context.Background(), "take1.mp4", strings.NewReader("fake video"))
	require.NoError(t, err)
	assert.Equal(t, "take1", res.PublicID)
	assert.Equal(t, 42.5, res.Duration)
	assert.Contains(t, res.SecureURL, "take1.mp4")
}

func TestUploadVideoErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "cloudinary error", status: http.StatusBadRequest, body: `{"error":{"message":"Upload preset not found"}}`, want: "Upload preset not found"},
		{name: "missing ids", status: http.StatusOK, body: `{"duration":1}`, want: "no secure_url"},
		{name: "garbage", status: http.StatusBadGateway, body: `<html>`, want: "media upload failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := u.UploadVideo(context.Background(), "x.mp4", strings.NewReader("x"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUploadVideoNotConfigured(t *testing.T) {
	_, err := NewCloudinaryUploader("", "").UploadVideo(context.Background(), "x.mp4", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, 93.5, durationOf(map[string]interface{}{"duration": 93.5}))
	assert.Zero(t, durationOf(map[string]interface{}{"public_id": "x"}))
	assert.Zero(t, durationOf(nil))
}
