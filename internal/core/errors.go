package core

import "errors"

// Sentinel errors returned by Document and Service operations. Callers should
// compare with errors.Is; messages double as MapError patterns.
var (
	ErrRowNotFound      = errors.New("row not found")
	ErrEditInProgress   = errors.New("another row is being edited")
	ErrNoEditInProgress = errors.New("no row is being edited")
	ErrSessionNotFound  = errors.New("session not found")
	ErrFileTooLarge     = errors.New("file too large")
	ErrNoFile           = errors.New("no file provided")
)
