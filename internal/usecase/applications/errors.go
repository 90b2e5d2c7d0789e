package applications

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrJobNotFound         = fmt.Errorf("job %w", ErrNotFound)
	ErrApplicationNotFound = fmt.Errorf("application %w", ErrNotFound)
	ErrConflict            = errors.New("already applied for this job")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrForbidden           = errors.New("forbidden")
	ErrInternal            = errors.New("internal error")
)
