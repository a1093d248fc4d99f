package llm

import (
	"errors"
	"net/http"
	"regexp"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// rateLimitText matches throttling wording in error text when the client gives no structured code.
// "rate" must be a whole word so "failed to generate content" does not match.
var rateLimitText = regexp.MustCompile(`(?i)\brate\b|quota|ratelimit|rate_limit|too many requests|resource.exhausted|\b429\b`)

// IsRateLimited reports whether err means the provider is throttling us.
// Structured codes are checked first; the substring match is a fallback for errors
// that arrive as plain text.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return st.Code() == codes.ResourceExhausted
	}

	return rateLimitText.MatchString(err.Error())
}
