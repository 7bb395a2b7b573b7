package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Collection errors
	ErrNotFound      = fmt.Errorf("node not found")
	ErrTypeMismatch  = fmt.Errorf("node type mismatch")
	ErrNotLoaded     = fmt.Errorf("collection not loaded")
	ErrNoOrphans     = fmt.Errorf("no orphan tracks")
	ErrTrackNotFound = fmt.Errorf("track not found")

	// Session errors
	ErrSessionExpired = fmt.Errorf("session expired")

	// Storage errors
	ErrUpstreamUnavailable = fmt.Errorf("document source unavailable")
	ErrPersistence         = fmt.Errorf("persistence failed")
	ErrDocumentMalformed   = fmt.Errorf("document malformed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
