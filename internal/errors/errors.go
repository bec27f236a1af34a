// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrJobNotFound is a sentinel error
type ErrJobNotFound struct {
	JobID string
}

func (e *ErrJobNotFound) Error() string {
	return fmt.Sprintf("campaign job %s not found", e.JobID)
}

// Helper constructor
func NewJobNotFound(id string) error {
	return &ErrJobNotFound{JobID: id}
}

// ErrTenantNotFound is a sentinel error
type ErrTenantNotFound struct {
	TenantID string
}

func (e *ErrTenantNotFound) Error() string {
	return fmt.Sprintf("tenant %s not found", e.TenantID)
}

func NewTenantNotFound(id string) error {
	return &ErrTenantNotFound{TenantID: id}
}

// ConfigError marks a terminal configuration problem (missing provider
// credentials, inactive tenant). Config errors are never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

func NewConfigError(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
