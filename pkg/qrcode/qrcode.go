// Package qrcode renders WiFi ticket credentials as PNG QR codes.
//
// The encoded content is the ticket username, which is what the portal's
// scanners expect. The portal server usually supplies the image; this
// package fills the gap when a confirmation arrives without one.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent   = errors.New("qrcode: content cannot be empty")
	ErrGenerateFailed = errors.New("qrcode: failed to generate")
)

// DefaultSize is the image width and height in pixels used when size <= 0.
const DefaultSize = 256

const dataURIPrefix = "data:image/png;base64,"

// Generate encodes content as a PNG with low error correction.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := skipqrcode.Encode(content, skipqrcode.Low, size)
	if err != nil {
		return nil, errors.Join(ErrGenerateFailed, err)
	}
	return png, nil
}

// GenerateBase64 returns the PNG as raw standard base64, the format the
// portal uses in qr_code fields.
func GenerateBase64(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// DataURI converts a raw base64 qr_code value to an img src.
// Values that already are data URIs are returned unchanged.
func DataURI(b64 string) string {
	if b64 == "" || strings.HasPrefix(b64, "data:") {
		return b64
	}
	return dataURIPrefix + b64
}

// Decode returns the PNG bytes of a raw base64 or data URI value.
func Decode(value string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(value, dataURIPrefix))
}
