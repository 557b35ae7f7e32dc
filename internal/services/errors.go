package services

import "errors"

var (
	// ErrForbidden is returned when the actor may not change the target
	ErrForbidden = errors.New("forbidden")
	// ErrSelfFollow is returned when a profile tries to follow itself
	ErrSelfFollow = errors.New("cannot follow yourself")
)
