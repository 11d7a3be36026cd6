package models

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var allowedSignatureTypes = []string{"image/png", "image/jpeg"}

// DecodeDataURL decodes a "data:image/png;base64,..." signature into raw
// image bytes. The content itself must sniff as PNG or JPEG regardless of
// the declared media type.
func DecodeDataURL(dataURL string) ([]byte, error) {
	s := strings.TrimSpace(dataURL)
	if s == "" {
		return nil, ErrEmptySignature
	}
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: missing data separator", ErrInvalidSignature)
		}
		if !strings.Contains(s[:comma], ";base64") {
			return nil, fmt.Errorf("%w: only base64 data URLs are supported", ErrInvalidSignature)
		}
		s = s[comma+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
	}
	if err := CheckSignatureImage(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// CheckSignatureImage verifies that raw bytes are a PNG or JPEG image.
func CheckSignatureImage(raw []byte) error {
	if len(raw) == 0 {
		return ErrEmptySignature
	}
	mt := mimetype.Detect(raw)
	if !mimetype.EqualsAny(mt.String(), allowedSignatureTypes...) {
		return fmt.Errorf("%w: unsupported image type %s", ErrInvalidSignature, mt.String())
	}
	return nil
}

// EncodeDataURL is the inverse of DecodeDataURL for uploaded image files.
func EncodeDataURL(raw []byte) (string, error) {
	if err := CheckSignatureImage(raw); err != nil {
		return "", err
	}
	mt := mimetype.Detect(raw)
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}
