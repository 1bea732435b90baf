package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInconsistentEntryState means a PayEntry's discriminator and parent
	// references disagree. It never results from caller input.
	ErrInconsistentEntryState = errors.New("inconsistent pay entry state")

	// ErrInvalidTransition is returned when a Disbursement cannot move to the
	// requested state from its current one.
	ErrInvalidTransition = errors.New("invalid disbursement state transition")
)

// InconsistentEntryStateError carries the context needed to debug a PayEntry
// that violates the single-parent invariant.
type InconsistentEntryStateError struct {
	EntryID       uuid.UUID
	Discriminator ParentKind
	// Reference names the reference that was missing or unexpected,
	// e.g. "pay_group" or "disbursement".
	Reference string
	Reason    string
}

func (e *InconsistentEntryStateError) Error() string {
	return fmt.Sprintf("%s: entry %s (discriminator %s): %s reference %s",
		ErrInconsistentEntryState, e.EntryID, e.Discriminator, e.Reference, e.Reason)
}

func (e *InconsistentEntryStateError) Unwrap() error {
	return ErrInconsistentEntryState
}

func inconsistent(id uuid.UUID, kind ParentKind, reference, reason string) error {
	return &InconsistentEntryStateError{
		EntryID:       id,
		Discriminator: kind,
		Reference:     reference,
		Reason:        reason,
	}
}

// FieldError is a validation problem scoped to a single input field.
type FieldError struct {
	// Field is the path of the offending field, e.g. "bankAccounts[1].routingNumber".
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every field error found in one input.
// A nil or empty value means the input is valid.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Valid reports whether no field errors were collected.
func (v ValidationErrors) Valid() bool {
	return len(v) == 0
}

// Err returns v as an error, or nil when there are no field errors.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}
