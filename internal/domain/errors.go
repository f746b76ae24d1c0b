package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a market with malformed fields.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a requested record is not in the current snapshot.
	ErrNotFound = errors.New("not found")
	// ErrRefreshInProgress is returned when a refresh is requested while one is running.
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrUpstreamFetch wraps failures of an ingestion source.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	// ErrLockHeld is returned when a distributed lock is held by another party.
	ErrLockHeld = errors.New("lock held by another holder")
)

// ValidationError describes which field of which market failed validation.
type ValidationError struct {
	MarketID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.MarketID == "" {
		return fmt.Sprintf("invalid market: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid market %s: %s %s", e.MarketID, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
