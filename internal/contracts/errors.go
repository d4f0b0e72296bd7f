package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMetric is returned when a ranking query names a metric that is
// not one of the supported sort keys.
var ErrUnknownMetric = errors.New("unknown metric")

// StructuralError rejects an entire batch before any row is examined
// individually: missing required columns or an empty batch. Nothing is
// persisted when a StructuralError occurs.
type StructuralError struct {
	MissingColumns []string
	Reason         string
}

func (e *StructuralError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("missing required columns: %s", strings.Join(e.MissingColumns, ", "))
	}
	return e.Reason
}

// StoreError wraps a record store failure. The core surfaces it as-is and
// never retries; retry policy belongs to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store unavailable: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
