package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// TreeErrorCode names a structural rule a tab tree command violated.
// The code is surfaced verbatim to API clients.
type TreeErrorCode string

const (
	CodeNodeNotFound               TreeErrorCode = "NodeNotFound"
	CodeSelfParent                 TreeErrorCode = "SelfParent"
	CodeCycleDetected              TreeErrorCode = "CycleDetected"
	CodeDepthExceeded              TreeErrorCode = "DepthExceeded"
	CodeSiblingLevelMismatch       TreeErrorCode = "SiblingLevelMismatch"
	CodeTargetNotFoundInSiblingSet TreeErrorCode = "TargetNotFoundInSiblingSet"
)

var _ HTTPError = (*TreeError)(nil)

// TreeError is raised by tree validation before any write happens.
// Every code describes an invalid request, never a transient condition.
type TreeError struct {
	Code    TreeErrorCode
	Message string
}

// Sentinels for errors.Is() matching by code
var (
	ErrNodeNotFound               = &TreeError{Code: CodeNodeNotFound, Message: "tab not found in tree"}
	ErrSelfParent                 = &TreeError{Code: CodeSelfParent, Message: "tab cannot be its own parent"}
	ErrCycleDetected              = &TreeError{Code: CodeCycleDetected, Message: "new parent is a descendant of the tab"}
	ErrDepthExceeded              = &TreeError{Code: CodeDepthExceeded, Message: "maximum tree depth exceeded"}
	ErrSiblingLevelMismatch       = &TreeError{Code: CodeSiblingLevelMismatch, Message: "tabs are not siblings"}
	ErrTargetNotFoundInSiblingSet = &TreeError{Code: CodeTargetNotFoundInSiblingSet, Message: "target tab is not among the siblings"}
)

// NewTreeError creates a TreeError with a formatted message
func NewTreeError(code TreeErrorCode, format string, args ...any) *TreeError {
	return &TreeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface
func (e *TreeError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *TreeError) StatusCode() int {
	if e.Code == CodeNodeNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// Is matches other TreeErrors by code, and the generic sentinels by category:
// NodeNotFound is ErrNotFound, every other code is ErrValidation.
func (e *TreeError) Is(target error) bool {
	var other *TreeError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	if e.Code == CodeNodeNotFound {
		return target == ErrNotFound
	}
	return target == ErrValidation
}
