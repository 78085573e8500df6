package validation

import (
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// isValidEmail matches /^[^\s@]+@[^\s@]+\.[^\s@]+$/
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var zipRe = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidZip accepts US 5 or 9 digit codes. Empty is valid (zip is optional).
func IsValidZip(zip string) bool {
	zip = strings.TrimSpace(zip)
	return zip == "" || zipRe.MatchString(zip)
}

// NonEmpty reports whether s has any non-space content.
func NonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// ImageContentType resolves the MIME type of an upload. The declared type wins unless it is
// missing or generic, in which case the bytes are sniffed.
func ImageContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}

// IsImage reports whether contentType is an image/* type.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// IsValidLatLng range-checks whichever coordinates are present.
func IsValidLatLng(lat, lng *float64) bool {
	if lat != nil && (*lat < -90 || *lat > 90) {
		return false
	}
	if lng != nil && (*lng < -180 || *lng > 180) {
		return false
	}
	return true
}
