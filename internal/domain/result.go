package domain

import (
	"encoding/json"
	"fmt"
)

// FailureKind classifies why an operation did not succeed.
type FailureKind string

const (
	FailureValidation         FailureKind = "validation"
	FailureNotFound           FailureKind = "not_found"
	FailureInvalidID          FailureKind = "invalid_id"
	FailureDuplicate          FailureKind = "duplicate"
	FailureInvalidCredentials FailureKind = "invalid_credentials"
	FailureAlreadyFavorited   FailureKind = "already_favorited"
	FailureNotFavorited       FailureKind = "not_favorited"
	FailurePersistence        FailureKind = "persistence"
)

// Failure is the error half of a Result.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Pagination describes one page of a list result.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int64 `json:"total_pages"`
}

// Result is the envelope returned by every store operation.
// Exactly one of Data or Err is meaningful, depending on Success.
type Result[T any] struct {
	Success    bool
	Data       T
	Err        *Failure
	Pagination *Pagination
}

func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func Paged[T any](data T, p Pagination) Result[T] {
	return Result[T]{Success: true, Data: data, Pagination: &p}
}

func Fail[T any](kind FailureKind, format string, args ...any) Result[T] {
	return Result[T]{Err: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// FailWith carries an existing failure into a result of another type.
func FailWith[T any](f *Failure) Result[T] {
	return Result[T]{Err: f}
}

// Kind returns the failure kind, or "" for a successful result.
func (r Result[T]) Kind() FailureKind {
	if r.Success || r.Err == nil {
		return ""
	}
	return r.Err.Kind
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool     `json:"success"`
			Error   *Failure `json:"error"`
		}{Error: r.Err})
	}
	return json.Marshal(struct {
		Success    bool        `json:"success"`
		Data       T           `json:"data"`
		Pagination *Pagination `json:"pagination,omitempty"`
	}{Success: true, Data: r.Data, Pagination: r.Pagination})
}
