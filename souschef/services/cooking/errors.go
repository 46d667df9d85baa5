package cooking

import "errors"

var (
	ErrSessionNotFound = errors.New("cooking: session not found")
	ErrSessionBusy     = errors.New("cooking: session busy")
	ErrRateLimited     = errors.New("cooking: rate limited")
	ErrInvalidInput    = errors.New("cooking: invalid input")
)
