// SPDX-License-Identifier: MIT

// Package validate provides configuration validation utilities for httpme.
package validate

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Error represents a validation error
type Error struct {
	Field   string // Field name that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
}

// Error implements the error interface
func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validator accumulates validation errors and can produce a ValidationError when invalid.
type Validator struct {
	errors []Error
}

// ValidationError bundles multiple validation errors into a single error value.
type ValidationError struct {
	errors []Error
}

// New creates a new validator
func New() *Validator {
	return &Validator{errors: make([]Error, 0)}
}

// AddError adds a validation error
func (v *Validator) AddError(field, message string, value any) {
	v.errors = append(v.errors, Error{Field: field, Value: value, Message: message})
}

// IsValid returns true if no errors have been accumulated
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Errors returns all accumulated validation errors
func (v *Validator) Errors() []Error {
	return v.errors
}

// Err converts the accumulated validation errors into an error value.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	return ValidationError{errors: slices.Clone(v.errors)}
}

// Errors returns the individual validation errors making up the validation failure.
func (e ValidationError) Errors() []Error {
	return e.errors
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	switch len(e.errors) {
	case 0:
		return ""
	case 1:
		return e.errors[0].Error()
	}
	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// URL validates a URL string
func (v *Validator) URL(field, value string, allowedSchemes []string) {
	if value == "" {
		v.AddError(field, "URL cannot be empty", value)
		return
	}
	u, err := url.Parse(value)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid URL: %v", err), value)
		return
	}
	if u.Host == "" {
		v.AddError(field, "URL must have a host", value)
		return
	}
	if len(allowedSchemes) > 0 && !slices.Contains(allowedSchemes, u.Scheme) {
		v.AddError(field, fmt.Sprintf("unsupported URL scheme %q (allowed: %v)", u.Scheme, allowedSchemes), value)
	}
}

// ListenAddr validates a host:port listen address. The host may be empty.
func (v *Validator) ListenAddr(field, value string) {
	host, port, err := net.SplitHostPort(value)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid listen address: %v", err), value)
		return
	}
	if host != "" && net.ParseIP(host) == nil && strings.ContainsAny(host, " /") {
		v.AddError(field, "invalid host", value)
		return
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		v.AddError(field, "port must be numeric", value)
		return
	}
	if n < 0 || n > 65535 {
		v.AddError(field, fmt.Sprintf("port must be between 0 and 65535, got %d", n), value)
	}
}

// Port validates a port number (1-65535)
func (v *Validator) Port(field string, port int) {
	if port <= 0 || port > 65535 {
		v.AddError(field, fmt.Sprintf("port must be between 1 and 65535, got %d", port), port)
	}
}

// Range validates that an integer is within a specified range (inclusive)
func (v *Validator) Range(field string, value, minVal, maxVal int) {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("value must be between %d and %d, got %d", minVal, maxVal, value), value)
	}
}

// FloatRange validates that a float is within a specified range (inclusive)
func (v *Validator) FloatRange(field string, value, minVal, maxVal float64) {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("value must be between %g and %g, got %g", minVal, maxVal, value), value)
	}
}

// NotEmpty validates that a string is not empty or whitespace-only
func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "cannot be empty", value)
	}
}

// OneOf validates that value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		v.AddError(field, fmt.Sprintf("must be one of %v, got %q", allowed, value), value)
	}
}

// Positive validates that an integer is greater than zero
func (v *Validator) Positive(field string, value int) {
	if value <= 0 {
		v.AddError(field, fmt.Sprintf("must be positive, got %d", value), value)
	}
}

// NonNegative validates that an integer is zero or greater
func (v *Validator) NonNegative(field string, value int) {
	if value < 0 {
		v.AddError(field, fmt.Sprintf("must not be negative, got %d", value), value)
	}
}

// Duration validates that d is within [minVal, maxVal]. A zero maxVal means no upper bound.
func (v *Validator) Duration(field string, d, minVal, maxVal time.Duration) {
	if d < minVal || (maxVal > 0 && d > maxVal) {
		v.AddError(field, fmt.Sprintf("duration %s out of range [%s, %s]", d, minVal, maxVal), d)
	}
}

// IPOrCIDR validates that every entry is an IP address or CIDR block
func (v *Validator) IPOrCIDR(field string, entries []string) {
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" || net.ParseIP(entry) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err == nil {
			continue
		}
		v.AddError(field, "must be a valid IP or CIDR", entry)
	}
}

// Custom runs a custom validation function
func (v *Validator) Custom(field string, value any, validator func(any) error) {
	if err := validator(value); err != nil {
		v.AddError(field, err.Error(), value)
	}
}
