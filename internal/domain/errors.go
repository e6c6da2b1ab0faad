package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when an operation requiring an active
	// chain connection runs before Start. Programmer error, never retried.
	ErrNotInitialized = errors.New("listener not initialized")

	// ErrAlreadyRunning is returned when Start is called on a listener that
	// already owns a live session for the same contract/event pair.
	ErrAlreadyRunning = errors.New("listener already running")

	// ErrDiscrepancyNotFound is returned when resolving a discrepancy id
	// that does not exist.
	ErrDiscrepancyNotFound = errors.New("discrepancy not found")

	// ErrAlreadyResolved is returned when resolving a discrepancy that is
	// already in the terminal RESOLVED state.
	ErrAlreadyResolved = errors.New("discrepancy already resolved")
)

// ConnectivityError marks a chain-reader failure: the node is unreachable or
// a query failed at the transport level. The listener retries these with
// backoff; a reconciliation pass fails outright and leaves the re-attempt to
// its scheduler. Distinct from "no events found", which is a nil error with
// an empty result.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("chain connectivity: %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// NewConnectivityError wraps err as a ConnectivityError for operation op.
func NewConnectivityError(op string, err error) error {
	return &ConnectivityError{Op: op, Err: err}
}

// IsConnectivityError reports whether err is a chain connectivity failure.
func IsConnectivityError(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// DecodeError marks a raw log that could not be decoded against a known
// event shape. The offending log is skipped; a decode failure never aborts
// the surrounding batch.
type DecodeError struct {
	TxHash string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode log %s: %s", e.TxHash, e.Reason)
}

// NewDecodeError builds a DecodeError for the log carried by txHash.
func NewDecodeError(txHash, format string, args ...interface{}) error {
	return &DecodeError{TxHash: txHash, Reason: fmt.Sprintf(format, args...)}
}

// IsDecodeError reports whether err is a log decode failure.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
