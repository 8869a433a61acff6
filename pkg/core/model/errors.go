package model

import "errors"

// Input errors: rejected before any computation, nothing committed
var ErrInvalidInput = errors.New("invalid input")

// Run-level failures: the run is aborted and nothing is committed
var (
	ErrNoEmployees      = errors.New("no active employees")
	ErrInputUnavailable = errors.New("input collaborator unavailable")
)

// Consistency violations: the version is left untouched
var (
	ErrInvalidTransition = errors.New("invalid version status transition")
	ErrVersionNotDraft   = errors.New("version is not a draft")
	ErrVersionNotFound   = errors.New("version not found")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrOverlappingEntry  = errors.New("entry overlaps another entry of the same employee")
)
