// Package result holds the envelope a finished call is reported in.
package result

import (
	"errors"
	"fmt"

	"github.com/Ifelsik/livecall/internal/call"
)

const (
	MsgUnknownError = "unknown error"
	MsgEmptyBody    = "body is empty"
)

type Kind int

const (
	KindSuccess Kind = iota + 1
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// SuccessError is either a decoded Body (KindSuccess) or a failure
// Message (KindFailure). Build it with Success, Failure or FromResponse.
type SuccessError[T any] struct {
	Kind    Kind
	Body    T
	Message string
}

func Success[T any](body T) SuccessError[T] {
	return SuccessError[T]{Kind: KindSuccess, Body: body}
}

func Failure[T any](message string) SuccessError[T] {
	return SuccessError[T]{Kind: KindFailure, Message: message}
}

// FromResponse classifies a response that reached the server.
func FromResponse[T any](resp *call.Response[T]) SuccessError[T] {
	if !resp.IsSuccessful() {
		if resp.Message == "" {
			return Failure[T](MsgUnknownError)
		}
		return Failure[T](resp.Message)
	}
	if !resp.HasBody {
		return Failure[T](MsgEmptyBody)
	}
	return Success(resp.Body)
}

func (r SuccessError[T]) IsSuccess() bool {
	return r.Kind == KindSuccess
}

func (r SuccessError[T]) IsFailure() bool {
	return r.Kind == KindFailure
}

// Get returns the body and whether r is a success.
func (r SuccessError[T]) Get() (T, bool) {
	if r.Kind != KindSuccess {
		var zero T
		return zero, false
	}
	return r.Body, true
}

// Err returns nil for a success and the failure message as an error otherwise.
func (r SuccessError[T]) Err() error {
	if r.Kind == KindSuccess {
		return nil
	}
	return errors.New(r.Message)
}

func (r SuccessError[T]) String() string {
	if r.Kind == KindSuccess {
		return fmt.Sprintf("Success(%v)", r.Body)
	}
	return fmt.Sprintf("Failure(%s)", r.Message)
}
