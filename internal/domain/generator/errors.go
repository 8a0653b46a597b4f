package generator

import (
	"errors"
	"fmt"

	"github.com/okian/bingo/internal/domain/model"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig    = errors.New("invalid board config")
	ErrInsufficientPool = errors.New("insufficient goal pool")
)

// InvalidConfigError reports caller misuse. It is fatal to the call.
type InvalidConfigError struct {
	Field string
	Msg   string
}

func (e *InvalidConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidConfig, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Msg)
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// InsufficientPoolError reports a bucket that could not be filled, either
// because it ran out of eligible goals or because the draw cap was reached.
type InsufficientPoolError struct {
	Bucket    model.Bucket
	Requested int
	Shortfall int
	Attempts  int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("%s: %s bucket short by %d of %d requested (after %d draws)",
		ErrInsufficientPool, e.Bucket, e.Shortfall, e.Requested, e.Attempts)
}

func (e *InsufficientPoolError) Unwrap() error { return ErrInsufficientPool }

func invalidf(field, format string, args ...any) error {
	return &InvalidConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
