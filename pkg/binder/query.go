package binder

import "net/http"

// Query binds URL query parameters into fields tagged `query:"name"`.
// Slice fields accept repeated or comma-separated values.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindValues(v, "query", r.URL.Query(), ErrInvalidQuery)
	}
}
