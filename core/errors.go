package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		msgs := make([]string, 0, len(err.Fields))
		for _, f := range err.Fields {
			msgs = append(msgs, f.Field+": "+f.Error)
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func (err ValidationError) Unwrap() error { return err.Err }

// PrefixFields returns a copy of err with every field path prefixed, e.g. "subjects[0]" + "class_score".
func (err ValidationError) PrefixFields(prefix string) *ValidationError {
	flds := make([]FieldError, 0, len(err.Fields))
	for _, f := range err.Fields {
		name := prefix
		if f.Field != "" {
			name = prefix + "." + f.Field
		}
		flds = append(flds, FieldError{Field: name, Error: f.Error})
	}
	return &ValidationError{Err: err.Err, Fields: flds}
}

// ConfigurationError reports an unset or unrecognised setting.
type ConfigurationError struct {
	Setting string
	Value   string
}

func NewConfigurationError(setting, value string) error {
	return &ConfigurationError{Setting: setting, Value: value}
}

func (err ConfigurationError) Error() string {
	if err.Value == "" {
		return fmt.Sprintf("%s is not set", err.Setting)
	}
	return fmt.Sprintf("unknown %s %q", err.Setting, err.Value)
}

func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func IsConfigurationError(err error) bool {
	var cErr *ConfigurationError
	return errors.As(err, &cErr)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
