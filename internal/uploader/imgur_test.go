package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/apperr"
	"social-service/internal/config"
)

func newImgurServer(t *testing.T, fail func(n int32) bool) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Client-ID test-client", r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "base64", body["type"])
		assert.NotEmpty(t, body["image"])

		w.Header().Set("Content-Type", "application/json")
		if fail(n) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"data":{"error":"boom"},"success":false,"status":500}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"link":"https://i.imgur.com/` + string(rune('a'+n-1)) + `.png"},"success":true,"status":200}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(endpoint string) *Client {
	return NewClient(config.Imgur{ClientID: "test-client", Endpoint: endpoint, Timeout: 5 * time.Second, CompressQuality: 80})
}

func TestUploadReturnsLink(t *testing.T) {
	srv, _ := newImgurServer(t, func(int32) bool { return false })

	url, err := newTestClient(srv.URL).Upload(context.Background(), []byte("not really an image"))
	require.NoError(t, err)
	assert.Equal(t, "https://i.imgur.com/a.png", url)
}

func TestUploadFailureIsUpstream(t *testing.T) {
	srv, _ := newImgurServer(t, func(int32) bool { return true })

	_, err := newTestClient(srv.URL).Upload(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestUploadDisabledWithoutClientID(t *testing.T) {
	c := NewClient(config.Imgur{Endpoint: "http://127.0.0.1:1", Timeout: time.Second})

	assert.False(t, c.Enabled())
	_, err := c.Upload(context.Background(), []byte("x"))
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestUploadManyIsBestEffortAndCapped(t *testing.T) {
	srv, calls := newImgurServer(t, func(n int32) bool { return n == 1 })

	urls := newTestClient(srv.URL).UploadMany(context.Background(), [][]byte{[]byte("1"), []byte("2"), []byte("3")}, 2)

	assert.Equal(t, []string{"https://i.imgur.com/b.png"}, urls)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestCompressFallsBackToOriginal(t *testing.T) {
	garbage := []byte("definitely not an image")
	assert.Equal(t, garbage, Compress(garbage, 80))
	assert.Equal(t, garbage, Compress(garbage, 0))

	truncated := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}
	assert.Equal(t, truncated, Compress(truncated, 80))
}

func gradient(alpha uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for x := 0; x < 256; x++ {
		for y := 0; y < 256; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: alpha})
		}
	}
	return img
}

func TestCompressShrinksLargeJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(255), &jpeg.Options{Quality: 100}))

	out := Compress(buf.Bytes(), 50)
	assert.Less(t, len(out), buf.Len())
	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestCompressLeavesPNGUntouched(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(128)))

	out := Compress(buf.Bytes(), 50)
	assert.Equal(t, buf.Bytes(), out)
	_, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}
