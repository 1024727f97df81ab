package providers

import "strings"

// rateLimitMarkers are the substrings that identify a provider quota or
// throughput rejection. Providers surface these over HTTP with inconsistent
// shapes, so classification is by message text.
var rateLimitMarkers = []string{
	"429",
	"quota",
	"rate limit",
	"resource exhausted",
	"resource_exhausted",
}

// IsRateLimit reports whether the error is a provider rate-limit or quota
// rejection. Callers rotate credentials and retry on these; all other errors
// are treated as non-retryable for the current chapter.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
