package binder

import (
	"fmt"
	"mime"
	"net/http"
)

// Form binds an application/x-www-form-urlencoded body into fields tagged
// `form:"name"`. Requests with another or no body type are not applicable,
// so the same handler can serve plain form posts and DataStar actions.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return ErrNotApplicable
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedMediaType, err)
		}
		if mediaType != "application/x-www-form-urlencoded" {
			return ErrNotApplicable
		}
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidForm, err)
		}
		return bindValues(v, "form", r.PostForm, ErrInvalidForm)
	}
}
