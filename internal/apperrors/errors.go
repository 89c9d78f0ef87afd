package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the operation is not valid for the current state of the resource.
var ErrConflict = errors.New("conflict")

// ErrInsufficientBalance indicates that a non-system account cannot cover the requested amount.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrIntegrity indicates a hash chain mismatch.
var ErrIntegrity = errors.New("integrity violation")

// ErrInternal indicates an unexpected failure in a dependency.
var ErrInternal = errors.New("internal error")

// ErrForbidden indicates the actor may not perform the action.
var ErrForbidden = errors.New("forbidden")

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets 5xx AppErrors match ErrInternal.
func (e *AppError) Is(target error) bool {
	return target == ErrInternal && e.Code >= 500
}

// InsufficientBalanceError names the account that could not cover a debit.
type InsufficientBalanceError struct {
	AccountID string
	Available int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: account %s has %d available, %d requested", ErrInsufficientBalance.Error(), e.AccountID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// StakeholderApprovalReason describes why a stakeholder blocks a release.
type StakeholderApprovalReason string

const (
	StakeholderApprovalMissing  StakeholderApprovalReason = "MISSING"
	StakeholderApprovalRejected StakeholderApprovalReason = "REJECTED"
)

// StakeholderApprovalError names the stakeholder whose approval is missing or negative.
type StakeholderApprovalError struct {
	EscrowID      string
	StakeholderID string
	Reason        StakeholderApprovalReason
}

func (e *StakeholderApprovalError) Error() string {
	if e.Reason == StakeholderApprovalRejected {
		return fmt.Sprintf("%s: stakeholder %s rejected release of escrow %s", ErrConflict.Error(), e.StakeholderID, e.EscrowID)
	}
	return fmt.Sprintf("%s: approval from stakeholder %s is required to release escrow %s", ErrConflict.Error(), e.StakeholderID, e.EscrowID)
}

func (e *StakeholderApprovalError) Is(target error) bool {
	return target == ErrConflict
}
