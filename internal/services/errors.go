package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
)

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrSelfMovementNotAllowed  = errors.New("cannot move funds to self")
	ErrPinNotConfigured        = errors.New("transaction PIN not configured")
	ErrInvalidPin              = errors.New("invalid transaction PIN")
	ErrWalletNotFound          = errors.New("wallet not found")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrIncompleteDateRange     = errors.New("both start and end date are required")
	ErrMalformedDateInput      = errors.New("invalid date format, use dd/mm/yyyy, mm/yyyy or yyyy")
	ErrNotFound                = errors.New("not found")
	ErrSystemWalletUnderfunded = errors.New("system wallet has insufficient balance")
	ErrEmailTaken              = errors.New("email already exists")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrStoreConflict           = errors.New("store conflict, retry the operation")
	ErrStoreUnavailable        = errors.New("store unavailable")
)

// ValidationError is an ErrInvalidInput carrying per-field details.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for field, tag := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", field, tag))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func newValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// storeError keeps the driver error reachable while matching a taxonomy sentinel.
type storeError struct {
	kind  error
	cause error
}

func (e *storeError) Error() string { return fmt.Sprintf("%s: %v", e.kind, e.cause) }
func (e *storeError) Is(target error) bool {
	return target == e.kind
}
func (e *storeError) Unwrap() error { return e.cause }

// Postgres SQLSTATE codes the ledger reacts to.
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqQueryCanceled        = "57014"
	pqCheckViolation       = "23514"
	pqUniqueViolation      = "23505"
)

// classifyStoreError maps driver failures onto the error taxonomy.
// Errors that already carry a taxonomy sentinel pass through unchanged.
func classifyStoreError(err error) error {
	if err == nil || isTaxonomyError(err) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable, pqQueryCanceled:
			return &storeError{kind: ErrStoreConflict, cause: err}
		case pqCheckViolation:
			return &storeError{kind: ErrInsufficientFunds, cause: err}
		}
		if pqErr.Code.Class() == "08" {
			return &storeError{kind: ErrStoreUnavailable, cause: err}
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return &storeError{kind: ErrStoreUnavailable, cause: err}
	}

	return err
}

func isTaxonomyError(err error) bool {
	for _, target := range []error{
		ErrInvalidInput, ErrSelfMovementNotAllowed, ErrPinNotConfigured, ErrInvalidPin,
		ErrWalletNotFound, ErrInsufficientFunds, ErrIncompleteDateRange, ErrMalformedDateInput,
		ErrNotFound, ErrSystemWalletUnderfunded, ErrEmailTaken, ErrInvalidCredentials, ErrStoreConflict, ErrStoreUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// IsRetryable reports whether the whole movement may be retried from scratch.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreConflict)
}

// IsClientError reports whether err is caused by the request rather than the store.
func IsClientError(err error) bool {
	if err == nil || errors.Is(err, ErrStoreConflict) || errors.Is(err, ErrStoreUnavailable) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return isTaxonomyError(err)
}
