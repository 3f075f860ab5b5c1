package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// MaxJSONSize bounds JSON request bodies.
const MaxJSONSize = 1 << 20

// JSON decodes an application/json body into v. DataStar requests are left to
// Signals; other body types are not applicable. Unknown fields and trailing
// data are rejected.
func JSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if isDataStar(r) {
			return ErrNotApplicable
		}
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return ErrNotApplicable
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedMediaType, err)
		}
		if mediaType != "application/json" {
			return ErrNotApplicable
		}
		if _, err := structValue(v, ErrInvalidJSON); err != nil {
			return err
		}

		dec := json.NewDecoder(io.LimitReader(r.Body, MaxJSONSize+1))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if dec.InputOffset() > MaxJSONSize {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidJSON, MaxJSONSize)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected data after object", ErrInvalidJSON)
		}
		return nil
	}
}
