// Package adapter turns pending calls into live data of result envelopes.
//
// The wrapped call is sent once, when the live data gets its first
// observer. Its outcome, whatever it is, is posted as a
// result.SuccessError; nothing is returned to the caller as an error.
package adapter

import (
	"reflect"
	"sync/atomic"

	"github.com/Ifelsik/livecall/internal/call"
	"github.com/Ifelsik/livecall/internal/livedata"
	"github.com/Ifelsik/livecall/internal/result"
	"github.com/sirupsen/logrus"
)

// Adapt wraps c. The returned live data starts c when first observed.
func Adapt[T any](c call.Call[T]) *livedata.LiveData[result.SuccessError[T]] {
	ld := &livedata.LiveData[result.SuccessError[T]]{}
	ld.SetOnActive(dispatchOnce(c, ld.Post))
	return ld
}

// dispatchOnce returns an activation hook that enqueues c the first time
// it runs and does nothing afterwards, however many goroutines race on it.
func dispatchOnce[T any](c call.Call[T], publish func(result.SuccessError[T])) func() {
	var started atomic.Bool
	return func() {
		if !started.CompareAndSwap(false, true) {
			return
		}
		c.Enqueue(func(resp *call.Response[T], err error) {
			if err != nil {
				publish(result.Failure[T](err.Error()))
				return
			}
			publish(result.FromResponse(resp))
		})
	}
}

type activatable interface {
	SetOnActive(fn func())
}

// liveDataCallAdapter serves a return type only known through reflection,
// *livedata.LiveData[result.SuccessError[T]] with T == responseType.
type liveDataCallAdapter struct {
	log          *logrus.Entry
	returnType   reflect.Type
	envelopeType reflect.Type
	responseType reflect.Type
}

func (a *liveDataCallAdapter) ResponseType() reflect.Type {
	return a.responseType
}

func (a *liveDataCallAdapter) Adapt(c call.Call[any]) any {
	out := reflect.New(a.returnType.Elem())
	post := out.MethodByName("Post")

	ld := out.Interface()
	ld.(activatable).SetOnActive(dispatchOnce(c, func(r result.SuccessError[any]) {
		post.Call([]reflect.Value{a.envelope(r)})
	}))
	return ld
}

// envelope copies r into a result.SuccessError of the concrete body type.
func (a *liveDataCallAdapter) envelope(r result.SuccessError[any]) reflect.Value {
	if r.IsSuccess() && r.Body != nil {
		body := reflect.ValueOf(r.Body)
		if !body.Type().AssignableTo(a.responseType) {
			a.log.Errorf("body of type %v is not assignable to %v", body.Type(), a.responseType)
			r = result.Failure[any]("unexpected body type " + body.Type().String())
		}
	}

	env := reflect.New(a.envelopeType).Elem()
	env.FieldByName("Kind").Set(reflect.ValueOf(r.Kind))
	env.FieldByName("Message").SetString(r.Message)
	if r.IsSuccess() && r.Body != nil {
		env.FieldByName("Body").Set(reflect.ValueOf(r.Body))
	}
	return env
}
