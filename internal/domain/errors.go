package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// rateLimitedError is the upstream's HTTP 429. It is the only error the
// sync controller retries on its own.
type rateLimitedError struct{}

func (rateLimitedError) Error() string     { return "rate limit exceeded" }
func (rateLimitedError) IsRetriable() bool { return true }

var (
	// ErrRateLimited is returned by the market data client on HTTP 429.
	ErrRateLimited error = rateLimitedError{}

	// ErrSyncInProgress is returned when a sync is requested while another is in flight.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("invalid page number")

	// ErrNotFound is returned when a record id is not in the committed set.
	ErrNotFound = errors.New("record not found")

	// ErrRetriesExhausted wraps the final rate-limit failure once all retries are spent.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// FetchFailedMessage is shown when a failed fetch carries no upstream error text.
const FetchFailedMessage = "Failed to fetch cryptos"

// FetchError is any non-429 failure of a page fetch. Never retried automatically.
type FetchError struct {
	Page       int
	StatusCode int // 0 for transport errors
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page %d: status %d: %s", e.Page, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch page %d: %s", e.Page, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) IsRetriable() bool {
	return false
}

// IntegrityError reports a record whose content hash does not match its content.
type IntegrityError struct {
	RecordID    string
	RecordName  string
	StoredHash  string
	CurrentHash string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity failure for %s: stored=%s current=%s", e.RecordID, e.StoredHash, e.CurrentHash)
}

func (e *IntegrityError) IsRetriable() bool {
	return false
}

// SerializationError is returned when a value cannot be canonically serialized.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Path == "" {
		return "serialization error: " + e.Err.Error()
	}
	return "serialization error at " + e.Path + ": " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
