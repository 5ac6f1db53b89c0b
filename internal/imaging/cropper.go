// Package imaging implements the avatar fetch-and-crop collaborator. JPEG is
// the only accepted type, matching the upstream contract.
package imaging

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"flockd/internal/domain"
)

type Cropper struct {
	dir    string
	client *http.Client
}

var _ domain.ImageCropper = (*Cropper)(nil)

func NewCropper(dir string) *Cropper {
	return &Cropper{
		dir:    dir,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchAndCrop downloads the image, validates the crop rectangle against its
// actual dimensions, and writes the cropped result under the upload dir. The
// returned reference is the stored file name.
func (c *Cropper) FetchAndCrop(ctx context.Context, url string, x0, y0, x1, y1 int) (string, error) {
	if !strings.HasSuffix(url, ".jpg") && !strings.HasSuffix(url, ".jpeg") {
		return "", fmt.Errorf("%w: not a jpg image: %s", domain.ErrInvalidInput, url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: bad image url %s", domain.ErrInvalidInput, url)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: cannot fetch %s: %v", domain.ErrInvalidInput, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: cannot fetch %s: status %d", domain.ErrInvalidInput, url, resp.StatusCode)
	}

	img, err := jpeg.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: decode image: %v", domain.ErrInvalidInput, err)
	}

	bounds := img.Bounds()
	if x0 < 0 || y0 < 0 || x1 < 0 || y1 < 0 ||
		x0 > bounds.Dx() || x1 > bounds.Dx() ||
		y0 > bounds.Dy() || y1 > bounds.Dy() ||
		x1 <= x0 || y1 <= y0 {
		return "", fmt.Errorf("%w: crop bounds outside image dimensions", domain.ErrInvalidInput)
	}

	cropped := image.NewRGBA(image.Rect(0, 0, x1-x0, y1-y0))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			cropped.Set(x-x0, y-y0, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}

	name := uuid.NewString() + ".jpg"
	out, err := os.Create(filepath.Join(c.dir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, cropped, nil); err != nil {
		return "", fmt.Errorf("encode avatar: %w", err)
	}
	return name, nil
}
