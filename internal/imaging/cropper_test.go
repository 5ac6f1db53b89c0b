package imaging_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flockd/internal/domain"
	"flockd/internal/imaging"
)

func serveJPEG(t *testing.T, width, height int) *httptest.Server {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAndCrop(t *testing.T) {
	srv := serveJPEG(t, 100, 80)
	dir := t.TempDir()
	cropper := imaging.NewCropper(dir)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		ref, err := cropper.FetchAndCrop(ctx, srv.URL+"/pic.jpg", 10, 10, 60, 50)
		require.NoError(t, err)
		assert.True(t, filepath.Ext(ref) == ".jpg")

		f, err := os.Open(filepath.Join(dir, ref))
		require.NoError(t, err)
		defer f.Close()

		out, err := jpeg.Decode(f)
		require.NoError(t, err)
		assert.Equal(t, 50, out.Bounds().Dx())
		assert.Equal(t, 40, out.Bounds().Dy())
	})

	t.Run("NonJPEGURL", func(t *testing.T) {
		_, err := cropper.FetchAndCrop(ctx, srv.URL+"/pic.png", 0, 0, 10, 10)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("BoundsOutsideImage", func(t *testing.T) {
		_, err := cropper.FetchAndCrop(ctx, srv.URL+"/pic.jpg", 0, 0, 101, 50)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("InvertedRectangle", func(t *testing.T) {
		_, err := cropper.FetchAndCrop(ctx, srv.URL+"/pic.jpg", 50, 50, 10, 10)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("FetchFailure", func(t *testing.T) {
		_, err := cropper.FetchAndCrop(ctx, "http://127.0.0.1:1/pic.jpg", 0, 0, 10, 10)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
