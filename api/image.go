package api

import (
	"encoding/base64"
	"strings"
)

// minImageBytes rejects payloads too small to be a real screenshot.
const minImageBytes = 500

// ValidImage reports whether data is a plausible base64-encoded image,
// with or without a data-URL prefix.
func ValidImage(data string) bool {
	if data == "" {
		return false
	}

	if strings.HasPrefix(data, "data:image/") {
		idx := strings.Index(data, ",")
		if idx < 0 {
			return false
		}
		data = data[idx+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return false
	}
	return len(decoded) > minImageBytes
}

// NormalizeImageDataURL ensures the payload carries a data-URL prefix, as
// the vision models expect.
func NormalizeImageDataURL(data string) string {
	if strings.HasPrefix(data, "data:image/") {
		return data
	}
	return "data:image/jpeg;base64," + data
}
