package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUntrustedURL is returned when a paper URL fails the allow-list.
	ErrUntrustedURL = errors.New("paper url is not allow-listed")
)
