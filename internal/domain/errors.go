package domain

import "errors"

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUploadFailed        = errors.New("upload failed")
	ErrRegistrationFailed  = errors.New("registration failed")
	ErrNotConfigured       = errors.New("not configured")
	ErrNotFound            = errors.New("not found")
)
