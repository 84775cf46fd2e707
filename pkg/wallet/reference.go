package wallet

import (
	"fmt"
	"strings"
)

// ReferenceKind enumerates the business objects a record can point at.
// The ledger stores the pointer for audit and display; it never dereferences
// or validates the target, which is owned by another subsystem.
type ReferenceKind string

const (
	ReferenceBooking    ReferenceKind = "booking"
	ReferenceOrder      ReferenceKind = "order"
	ReferenceReferral   ReferenceKind = "referral"
	ReferenceWithdrawal ReferenceKind = "withdrawal"
	ReferencePayout     ReferenceKind = "payout"
	ReferenceAdjustment ReferenceKind = "adjustment"
)

// ParseReferenceKind validates a raw reference kind.
func ParseReferenceKind(raw string) (ReferenceKind, error) {
	kind := ReferenceKind(raw)
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidReference, raw)
	}
	return kind, nil
}

// IsValid reports whether the kind is known.
func (kind ReferenceKind) IsValid() bool {
	switch kind {
	case ReferenceBooking, ReferenceOrder, ReferenceReferral, ReferenceWithdrawal, ReferencePayout, ReferenceAdjustment:
		return true
	}
	return false
}

// String returns the raw kind.
func (kind ReferenceKind) String() string {
	return string(kind)
}

// Reference is a tagged pointer to the business event that caused a record.
type Reference struct {
	Kind ReferenceKind
	ID   string
}

// NewReference validates a tagged business reference.
func NewReference(kind ReferenceKind, id string) (Reference, error) {
	if !kind.IsValid() {
		return Reference{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidReference, kind)
	}
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return Reference{}, fmt.Errorf("%w: empty id", ErrInvalidReference)
	}
	return Reference{Kind: kind, ID: trimmed}, nil
}
