// Package media normalises uploaded profile photos before they are forwarded to the API.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // registers the WEBP decoder with image.Decode
)

// Photo limits
const (
	MaxUploadBytes = 5 << 20
	MaxSide        = 512
	jpegQuality    = 85
)

// Errors surfaced as field messages on the profile form.
var (
	ErrEmpty       = errors.New("le fichier est vide")
	ErrTooLarge    = errors.New("la photo ne doit pas dépasser 5 Mo")
	ErrUnsupported = errors.New("format non pris en charge (JPEG, PNG, GIF ou WEBP)")
	ErrUndecodable = errors.New("image illisible")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Photo is a normalised JPEG ready for upload.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// NormalizePhoto sniffs, decodes, downscales and re-encodes an uploaded image.
// PRE: data is the raw upload; filename is the client-supplied name
// POST: Returns a JPEG no larger than MaxSide on either side, never upscaled
func NormalizePhoto(data []byte, filename string) (Photo, error) {
	if len(data) == 0 {
		return Photo{}, ErrEmpty
	}
	if len(data) > MaxUploadBytes {
		return Photo{}, ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return Photo{}, fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	img = imaging.Fit(img, MaxSide, MaxSide, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return Photo{}, err
	}
	b := img.Bounds()
	return Photo{
		Filename:    jpegName(filename),
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

// jpegName keeps the base name of the upload with a .jpg extension.
func jpegName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "photo"
	}
	return base + ".jpg"
}
