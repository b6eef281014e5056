// Package validation checks submitted forms field by field and collects the
// problems in an Errors sink that templates can render next to each input.
package validation

import (
	"context"
	"strings"
)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors collects field errors from one or more validators.
type Errors struct {
	list []FieldError
}

func (e *Errors) Add(field, message string) {
	e.list = append(e.list, FieldError{Field: field, Message: message})
}

func (e *Errors) HasErrors() bool {
	return e != nil && len(e.list) > 0
}

// For returns the messages recorded for field, in the order they were added.
func (e *Errors) For(field string) []string {
	if e == nil {
		return nil
	}

	var messages []string
	for _, fe := range e.list {
		if fe.Field == field {
			messages = append(messages, fe.Message)
		}
	}
	return messages
}

func (e *Errors) All() []FieldError {
	if e == nil {
		return nil
	}
	return e.list
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.All()))
	for _, fe := range e.All() {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}

// Validator inspects a candidate and records what is wrong with it in errs.
type Validator[T any] interface {
	Validate(ctx context.Context, candidate T, errs *Errors)
}
