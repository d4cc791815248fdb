package types

import (
	"errors"
	"fmt"
)

var ErrEmptyInventory = errors.New("table inventory is empty")

type TableNotFoundError struct {
	Table  TableIdentifier
	Reason string
}

func (e *TableNotFoundError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("table %s not found: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("table %s not found", e.Table)
}

type IndexNotFoundError struct {
	Table TableIdentifier
	Index SecondaryIndexName
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index %s not found on table %s", e.Index, e.Table)
}

type UnsupportedCapacityKindError struct {
	Kind string
}

func (e *UnsupportedCapacityKindError) Error() string {
	return fmt.Sprintf("unsupported capacity kind %q", e.Kind)
}

type InvalidCapacityError struct {
	Subject Subject
	Units   float64
}

func (e *InvalidCapacityError) Error() string {
	if e.Subject.Table == "" {
		return fmt.Sprintf("invalid provisioned capacity %v", e.Units)
	}
	return fmt.Sprintf("invalid provisioned capacity %v for %s", e.Units, e.Subject)
}

// TransportError wraps any failure from the AWS client that is not mapped to a
// more specific error.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
