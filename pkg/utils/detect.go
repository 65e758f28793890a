package utils

import (
	"net/http"
	"strings"
)

// DetectMime sniffs the content type from the file bytes, ignoring whatever
// the client declared. http.DetectContentType recognizes all three formats
// the intake accepts (pdf, jpeg, png).
func DetectMime(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}
