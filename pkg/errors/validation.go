package errors

import (
	"strings"
	"unicode"
)

// maxPartNumberLength bounds manufacturer and distributor part numbers.
// Real part numbers stay well below this.
const maxPartNumberLength = 128

// ValidatePartNumber validates a part number read from user input or a BOM.
// It rejects values that cannot name a single product endpoint.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators (the number becomes one URL path segment)
//   - Maximum length of 128 characters
func ValidatePartNumber(pn string) error {
	if strings.TrimSpace(pn) == "" {
		return New(ErrCodePartSearch, "part number cannot be empty")
	}

	if len(pn) > maxPartNumberLength {
		return New(ErrCodePartSearch, "part number too long (max %d characters)", maxPartNumberLength)
	}

	for _, r := range pn {
		if unicode.IsControl(r) {
			return New(ErrCodePartSearch, "part number contains invalid control characters")
		}
	}

	if strings.ContainsAny(pn, "/\\") {
		return New(ErrCodePartSearch, "part number cannot contain path separators: %q", pn)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodePartSearch, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodePartSearch, "URL must use http or https scheme")
	}

	return nil
}
