package commentary

import (
	"errors"
	"strings"
)

var (
	// ErrEmptySelection is returned when analysis is requested with no text.
	ErrEmptySelection = errors.New("select some text to analyze")

	// ErrInProgress is returned when a session already has a request in flight.
	ErrInProgress = errors.New("analysis already in progress")
)

// Category classifies a generator failure for the reader.
type Category string

const (
	CategoryQuota   Category = "quota"
	CategoryTimeout Category = "timeout"
	CategoryAuth    Category = "auth"
	CategoryNetwork Category = "network"
	CategoryGeneric Category = "generic"
)

var categoryMessages = map[Category]string{
	CategoryQuota:   "The commentary service has hit its usage quota or rate limit. Please wait a minute and try again.",
	CategoryTimeout: "The commentary request timed out. Try a shorter selection or a lower analysis tier.",
	CategoryAuth:    "The commentary service is not configured with a valid API key.",
	CategoryNetwork: "Could not reach the commentary service. Check your network connection and try again.",
	CategoryGeneric: "Commentary could not be generated right now. Please try again.",
}

// categoryPatterns are checked in order against the lowercased error text.
var categoryPatterns = []struct {
	category Category
	patterns []string
}{
	{CategoryQuota, []string{"quota", "rate limit", "rate_limit", "status 429"}},
	{CategoryTimeout, []string{"timeout", "deadline exceeded", "timed out"}},
	{CategoryAuth, []string{"api key", "api-key", "authentication", "status 401"}},
	{CategoryNetwork, []string{"network", "connection refused", "no such host", "connection reset"}},
}

// GenerationError is a generator failure converted to a display message.
type GenerationError struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Err      error    `json:"-"`
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ClassifyError maps a generator error to a user-facing message by looking
// for known substrings. It returns nil for a nil error.
func ClassifyError(err error) *GenerationError {
	if err == nil {
		return nil
	}

	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}

	text := strings.ToLower(err.Error())
	category := CategoryGeneric
	for _, c := range categoryPatterns {
		if containsAny(text, c.patterns) {
			category = c.category
			break
		}
	}

	return &GenerationError{
		Category: category,
		Message:  categoryMessages[category],
		Err:      err,
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
