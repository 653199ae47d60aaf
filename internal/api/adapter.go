package api

import (
	"reflect"

	"github.com/Ifelsik/livecall/internal/call"
)

// Annotation is a key/value taken from the struct tag of a bound method.
type Annotation struct {
	Name  string
	Value string
}

// CallAdapter turns a pending call into the value a bound method returns.
type CallAdapter interface {
	// ResponseType is the type the response body is decoded into.
	ResponseType() reflect.Type
	// Adapt wraps c. The result must be assignable to the method's return type.
	Adapt(c call.Call[any]) any
}

// CallAdapterFactory inspects a method's declared return type. It returns
// (nil, nil) to decline the type and a non-nil error when the declaration
// is one it owns but is malformed.
type CallAdapterFactory interface {
	Get(returnType reflect.Type, annotations []Annotation, client *Client) (CallAdapter, error)
}

func findAnnotation(annotations []Annotation, name string) string {
	for _, a := range annotations {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}
