package call

import (
	"encoding/json"
	"fmt"
	"io"
)

// Decoder fills target, a non-nil pointer, from a response body.
type Decoder func(r io.Reader, target any) error

// JSON decodes a single JSON document.
func JSON(r io.Reader, target any) error {
	return json.NewDecoder(r).Decode(target)
}

// Text copies the raw body into a *string, *[]byte or *any.
func Text(r io.Reader, target any) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	switch t := target.(type) {
	case *string:
		*t = string(b)
	case *[]byte:
		*t = b
	case *any:
		*t = string(b)
	default:
		return fmt.Errorf("text decoder: unsupported target %T", target)
	}
	return nil
}
