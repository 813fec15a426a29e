package service

import "errors"

// Sentinel kinds returned by Service. Callers match them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBackpressure    = errors.New("event queue is full")
	ErrNotStarted      = errors.New("service not started")
)
