package dobhasi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies translation failures.
type ErrorKind int

const (
	// KindNone means no error.
	KindNone ErrorKind = iota
	// KindRateLimited is an HTTP 429 from the backend. Expected under load.
	KindRateLimited
	// KindQuotaExceeded is an HTTP 402 or an exhausted credit balance.
	KindQuotaExceeded
	// KindMalformed is a response that could not be parsed or had the wrong shape.
	KindMalformed
	// KindNetwork is any other transport or backend failure.
	KindNetwork
	// KindTimeout is a call that did not finish before its deadline.
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindMalformed:
		return "malformed"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrClosed is returned by operations on a closed Translator.
var ErrClosed = errors.New("translator is closed")

// TranslationError is the base error type for translation failures.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates a translation backend failure.
type ProviderError struct {
	Kind      ErrorKind
	Status    int // HTTP-like status, 0 when unknown
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("provider error (%s): %s", e.Kind, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewStatusError builds a ProviderError whose kind is derived from an HTTP status.
func NewStatusError(status int, message string, cause error) *ProviderError {
	kind := KindFromStatus(status)
	return &ProviderError{
		Kind:      kind,
		Status:    status,
		Message:   message,
		Cause:     cause,
		Retryable: (kind == KindNetwork && status >= 500) || kind == KindTimeout,
	}
}

// CacheError indicates a cache storage failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates a content processing failure (parse error, etc.).
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string // The type of content that failed to process
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates the backend returned a different number of translations than expected.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}

// KindFromStatus maps an HTTP status code to an error kind.
func KindFromStatus(status int) ErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusPaymentRequired:
		return KindQuotaExceeded
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindNetwork
	}
}

// KindOf resolves the kind of err through any wrapping.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Kind
	}

	var mismatch *CountMismatchError
	if errors.As(err, &mismatch) {
		return KindMalformed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	return KindNetwork
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}
