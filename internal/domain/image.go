package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// JPEGMimeType is the encoding the vision classifier receives
const JPEGMimeType = "image/jpeg"

// StripDataURL returns the base64 payload of a data URL, or s unchanged when
// it carries no prefix.
func StripDataURL(s string) string {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		return s[i+1:]
	}
	return s
}

// DecodeDataURL decodes a data URL or bare base64 string into bytes
func DecodeDataURL(s string) ([]byte, error) {
	payload := StripDataURL(strings.TrimSpace(s))
	if payload == "" {
		return nil, fmt.Errorf("%w: image is required", ErrInvalidRequest)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrUnsupportedImage, err)
	}
	return data, nil
}

// EncodeDataURL wraps data in a data URL of the given MIME type
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
