package photo

import (
	"bytes"
	"errors"
	"fmt"
	_ "image/gif"
	_ "image/png"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
)

// MaxUploadBytes caps the size of an accepted upload.
const MaxUploadBytes = 8 << 20

// ContentType is the type of every normalized photo.
const ContentType = "image/jpeg"

var (
	ErrEmpty    = errors.New("photo is empty")
	ErrTooLarge = errors.New("photo exceeds 8 MB")
	ErrNotImage = errors.New("file is not a supported image")
)

// Normalizer re-encodes uploaded passport photos as bounded JPEGs.
type Normalizer struct {
	MaxPx   int
	Quality int
}

// NewNormalizer returns a normalizer fitting photos inside maxPx x maxPx.
func NewNormalizer(maxPx int) *Normalizer {
	return &Normalizer{MaxPx: maxPx, Quality: 85}
}

// Normalize decodes data, honours EXIF orientation, shrinks the image to fit
// MaxPx and encodes it as JPEG. The returned filename always ends in .jpg.
// PRE: data is the raw upload
// POST: returned bytes decode as JPEG no larger than MaxPx on either side
func (n *Normalizer) Normalize(filename string, data []byte) (string, []byte, error) {
	if len(data) == 0 {
		return "", nil, ErrEmpty
	}
	if len(data) > MaxUploadBytes {
		return "", nil, ErrTooLarge
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return "", nil, ErrNotImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	b := img.Bounds()
	if b.Dx() > n.MaxPx || b.Dy() > n.MaxPx {
		img = imaging.Fit(img, n.MaxPx, n.MaxPx, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(n.Quality)); err != nil {
		return "", nil, fmt.Errorf("encode photo: %w", err)
	}
	return jpegName(filename), buf.Bytes(), nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

func jpegName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = unsafeChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == "_" {
		base = "passport"
	}
	return base + ".jpg"
}
