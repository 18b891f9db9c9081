package media

import "errors"

var (
	// ErrValidation marks bad or missing client input (400).
	ErrValidation = errors.New("invalid media input")
	// ErrNotFound is returned when the requested image or thumbnail does not exist (404).
	ErrNotFound = errors.New("media not found")
	// ErrUpload wraps any storage or thumbnail failure during upload (500).
	ErrUpload = errors.New("media upload failed")
)
