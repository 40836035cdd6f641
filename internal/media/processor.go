package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

const DefaultMaxDimension = 3840

var (
	ErrUnsupportedFormat = errors.New("unsupported image format, use jpg, jpeg, png, webp, or gif")
	ErrImageTooLarge     = errors.New("image exceeds the allowed size")
)

var extByFormat = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
}

// Upload is a not-yet-trusted file received from a client.
type Upload struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

// Image is an upload that decoded as one of the supported formats.
type Image struct {
	Bytes       []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Validator checks uploads by decoding them rather than trusting the declared
// content type or file extension.
type Validator struct {
	maxBytes     int64
	maxDimension int
}

func NewValidator(maxBytes int64, maxDimension int) *Validator {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Validator{maxBytes: maxBytes, maxDimension: maxDimension}
}

func (v *Validator) Validate(upload Upload) (*Image, error) {
	if upload.Reader == nil {
		return nil, errors.New("media: empty reader")
	}
	if v.maxBytes > 0 && upload.Size > v.maxBytes {
		return nil, ErrImageTooLarge
	}

	if ext := strings.ToLower(filepath.Ext(upload.FileName)); ext != "" {
		switch ext {
		case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		default:
			return nil, ErrUnsupportedFormat
		}
	}

	var reader io.Reader = upload.Reader
	if v.maxBytes > 0 {
		reader = io.LimitReader(reader, v.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("media: read image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("media: empty image data")
	}
	if v.maxBytes > 0 && int64(len(data)) > v.maxBytes {
		return nil, ErrImageTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUnsupportedFormat
	}
	ext, ok := extByFormat[format]
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	if cfg.Width > v.maxDimension || cfg.Height > v.maxDimension {
		return nil, ErrImageTooLarge
	}

	contentType := "image/" + format
	return &Image{
		Bytes:       data,
		ContentType: contentType,
		Ext:         ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
