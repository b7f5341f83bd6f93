package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration matches every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// Reason classifies a ConfigurationError.
type Reason int

const (
	// ReasonMissing: a variable required by an enabled feature is unset.
	ReasonMissing Reason = iota + 1
	// ReasonInvalid: a value is present but does not parse as its type.
	ReasonInvalid
	// ReasonUnsupported: an enum value outside the accepted set.
	ReasonUnsupported
)

func (r Reason) String() string {
	switch r {
	case ReasonMissing:
		return "missing"
	case ReasonInvalid:
		return "invalid"
	case ReasonUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// ConfigurationError is the only error kind returned by Load. It is fatal to
// startup.
type ConfigurationError struct {
	Variable string
	Reason   Reason
	// Value is empty for secret-bearing variables.
	Value    string
	Accepted []string
	// Feature names the feature that made Variable required, if any.
	Feature Features
	Err     error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("config: ")
	switch e.Reason {
	case ReasonMissing:
		b.WriteString(e.Variable)
		b.WriteString(" is required")
		if e.Feature != 0 {
			fmt.Fprintf(&b, " when the %s feature is enabled", e.Feature)
		}
	case ReasonUnsupported:
		fmt.Fprintf(&b, "%s=%q is not one of [%s]", e.Variable, e.Value, strings.Join(e.Accepted, ", "))
	default:
		if e.Value != "" {
			fmt.Fprintf(&b, "%s=%q is invalid", e.Variable, e.Value)
		} else {
			fmt.Fprintf(&b, "%s is invalid", e.Variable)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func missing(variable string, feature Features) *ConfigurationError {
	return &ConfigurationError{Variable: variable, Reason: ReasonMissing, Feature: feature}
}

func invalid(variable, value string, err error) *ConfigurationError {
	return &ConfigurationError{Variable: variable, Reason: ReasonInvalid, Value: value, Err: err}
}

func unsupported(variable, value string, accepted []string) *ConfigurationError {
	return &ConfigurationError{Variable: variable, Reason: ReasonUnsupported, Value: value, Accepted: accepted}
}
