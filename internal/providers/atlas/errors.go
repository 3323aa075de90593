package atlas

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a generation failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindSensitiveContent
	KindRateLimited
	KindInvalidCredentials
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindSensitiveContent:
		return "sensitive_content"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// GenerationError is the terminal failure of a Generate call.
type GenerationError struct {
	Kind    ErrorKind
	Message string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("atlas: %s: %s", e.Kind, e.Message)
}

// IsKind reports whether err is a *GenerationError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Kind == kind
}

// Classify maps provider-supplied error text onto an ErrorKind using
// case-insensitive substring tests. Precedence: sensitive content, then
// rate limiting, then credentials; everything else is unknown (retryable).
func Classify(text string) ErrorKind {
	msg := strings.ToLower(text)
	switch {
	case strings.Contains(msg, "sensitive") || strings.Contains(msg, "nsfw"):
		return KindSensitiveContent
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "too many requests") || strings.Contains(msg, "429"):
		return KindRateLimited
	case strings.Contains(msg, "token") || strings.Contains(msg, "401") ||
		strings.Contains(msg, "authentication") || strings.Contains(msg, "unauthorized"):
		return KindInvalidCredentials
	default:
		return KindUnknown
	}
}
