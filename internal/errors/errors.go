package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType classifies a scrape failure.
type ErrorType string

const (
	// ErrorTypeValidation is a malformed or missing request input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeUnsupported is a URL whose platform is not handled
	ErrorTypeUnsupported ErrorType = "unsupported"
	// ErrorTypeRateLimit is a request rejected by a limiter
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeUpstream is a crawling API or target site failure
	ErrorTypeUpstream ErrorType = "upstream"
	// ErrorTypeUnavailable is a browser that could not be launched
	ErrorTypeUnavailable ErrorType = "unavailable"
	// ErrorTypeNavigation is a page that could not be loaded after retries
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeParsing is content that could not be parsed at all
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeCache is a result cache failure
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeStorage is a history database failure
	ErrorTypeStorage ErrorType = "storage"
)

// Sentinels usable with errors.Is; they match any ScrapeError of the same type.
var (
	ErrServiceUnavailable = &ScrapeError{Type: ErrorTypeUnavailable, Message: "browser service unavailable"}
	ErrNavigation         = &ScrapeError{Type: ErrorTypeNavigation, Message: "navigation failed"}
	ErrRateLimited        = &ScrapeError{Type: ErrorTypeRateLimit, Message: "rate limit exceeded"}
)

// ScrapeError is an error raised somewhere in the scrape pipeline.
type ScrapeError struct {
	Type     ErrorType
	Platform string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Type)
	if e.Platform != "" {
		prefix += " " + e.Platform + ":"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s - %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Is matches any ScrapeError with the same Type.
func (e *ScrapeError) Is(target error) bool {
	t, ok := target.(*ScrapeError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// IsRetryable returns true if the error is retryable
func (e *ScrapeError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeUpstream, ErrorTypeNavigation:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, platform, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:     errType,
		Platform: platform,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

func NewValidation(message string) *ScrapeError {
	return New(ErrorTypeValidation, "", message, nil)
}

func NewUnsupported(url string) *ScrapeError {
	return New(ErrorTypeUnsupported, "", fmt.Sprintf("unsupported platform for %q", url), nil)
}

func NewRateLimit(platform string, retryIn time.Duration) *ScrapeError {
	return New(ErrorTypeRateLimit, platform, fmt.Sprintf("rate limited for %v", retryIn.Round(time.Second)), nil)
}

func NewUpstream(platform, message string, err error) *ScrapeError {
	return New(ErrorTypeUpstream, platform, message, err)
}

func NewUnavailable(platform, message string, err error) *ScrapeError {
	return New(ErrorTypeUnavailable, platform, message, err)
}

func NewNavigation(platform, message string, err error) *ScrapeError {
	return New(ErrorTypeNavigation, platform, message, err)
}

func NewParsing(platform, message string, err error) *ScrapeError {
	return New(ErrorTypeParsing, platform, message, err)
}

func NewCache(message string, err error) *ScrapeError {
	return New(ErrorTypeCache, "", message, err)
}

func NewStorage(message string, err error) *ScrapeError {
	return New(ErrorTypeStorage, "", message, err)
}

// TypeOf returns the ErrorType of the first ScrapeError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Type
	}
	return ""
}
