package usecase

import (
	"errors"

	"PaperFeed/internal/domain"
)

var (
	// ErrInvalidInput marks caller mistakes such as negative thresholds or
	// unknown styles.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingCredentials is returned when a required upstream adapter is
	// not configured.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrNotConfigured reports a use case built without a required
	// collaborator such as its repository.
	ErrNotConfigured = errors.New("not configured")
	// ErrUpstream wraps failures of the search provider or the language model.
	ErrUpstream = errors.New("upstream failure")
	// ErrNotFound is returned for unknown paper or note ids.
	ErrNotFound = domain.ErrNotFound
	// ErrAlreadyPublished guards against publishing a note twice.
	ErrAlreadyPublished = errors.New("content already published")
)
