package domain

import "errors"

var (
	ErrInvalidURL       = errors.New("invalid website url")
	ErrInvalidPlacement = errors.New("invalid placement")
	ErrInvalidPlayer    = errors.New("invalid player config")
	ErrInvalidPlugin    = errors.New("invalid plugin config")
	ErrInvalidDemo      = errors.New("invalid demo")
)
