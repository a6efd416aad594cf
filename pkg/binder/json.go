package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxJSONSize bounds JSON request bodies.
const MaxJSONSize = 1 << 20

// JSON decodes a single JSON document into v. Unknown fields and trailing
// data are rejected.
func JSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxJSONSize+1))
	if err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}
	if len(body) > MaxJSONSize {
		return ErrBodyTooLarge
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}
	if dec.More() {
		return errors.Join(ErrInvalidJSON, errors.New("unexpected data after JSON document"))
	}
	return nil
}
