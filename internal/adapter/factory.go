package adapter

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Ifelsik/livecall/internal/api"
	"github.com/Ifelsik/livecall/internal/livedata"
	"github.com/Ifelsik/livecall/internal/result"
	"github.com/sirupsen/logrus"
)

var (
	ErrReturnTypeNotLiveData = errors.New("returnType must be LiveData")
	ErrNotSuccessError       = errors.New("type must be a SuccessError")
	ErrNotParameterized      = errors.New("resource must be parameterized")
)

// ConfigError reports a method declaration the factory cannot serve.
type ConfigError struct {
	ReturnType reflect.Type
	Err        error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v (got %v)", e.Err, e.ReturnType)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	liveDataType = reflect.TypeOf(livedata.LiveData[struct{}]{})
	envelopeType = reflect.TypeOf(result.SuccessError[struct{}]{})
)

// Factory resolves return types of the form
// *livedata.LiveData[result.SuccessError[T]].
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

var _ api.CallAdapterFactory = (*Factory)(nil)

// Get checks, in order, the container, the envelope and the body type,
// then returns an adapter decoding bodies into T. Annotations are ignored;
// client only lends its logger.
func (f *Factory) Get(returnType reflect.Type, _ []api.Annotation, client *api.Client) (api.CallAdapter, error) {
	if returnType == nil || returnType.Kind() != reflect.Pointer || !sameGeneric(returnType.Elem(), liveDataType) {
		return nil, &ConfigError{ReturnType: returnType, Err: ErrReturnTypeNotLiveData}
	}

	post, _ := returnType.MethodByName("Post")
	observableType := post.Type.In(1)
	if !sameGeneric(observableType, envelopeType) {
		return nil, &ConfigError{ReturnType: returnType, Err: ErrNotSuccessError}
	}

	body, _ := observableType.FieldByName("Body")
	bodyType := body.Type
	if bodyType.Kind() == reflect.Interface && bodyType.NumMethod() == 0 {
		return nil, &ConfigError{ReturnType: returnType, Err: ErrNotParameterized}
	}

	log := logrus.NewEntry(logrus.StandardLogger())
	if client != nil {
		log = client.Logger()
	}
	log = log.WithField("response_type", bodyType.String())
	log.Debug("live data call adapter resolved")

	return &liveDataCallAdapter{
		log:          log,
		returnType:   returnType,
		envelopeType: observableType,
		responseType: bodyType,
	}, nil
}

// sameGeneric reports whether t and u instantiate the same generic type.
func sameGeneric(t, u reflect.Type) bool {
	return t.PkgPath() == u.PkgPath() && genericName(t) == genericName(u)
}

func genericName(t reflect.Type) string {
	name, _, _ := strings.Cut(t.Name(), "[")
	return name
}
