package binder

import (
	"fmt"
	"net/http"
	"net/url"
)

// Path binds router path parameters into fields tagged `path:"name"`.
// extractor reads one parameter, e.g. chi.URLParam.
//
//	type FlowRequest struct {
//		FlowID string `path:"flowID"`
//	}
//
//	r.Get("/checkout/flows/{flowID}", handler.Wrap(h,
//		handler.WithBinders[handler.Context, FlowRequest](binder.Path(chi.URLParam)),
//	))
func Path(extractor func(r *http.Request, key string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrInvalidPath)
		}
		rv, err := structValue(v, ErrInvalidPath)
		if err != nil {
			return err
		}

		values := url.Values{}
		rt := rv.Type()
		for i := range rt.NumField() {
			name, skip := parseTag(rt.Field(i), "path")
			if skip || !rv.Field(i).CanSet() {
				continue
			}
			if val := extractor(r, name); val != "" {
				values.Set(name, val)
			}
		}
		return bindValues(v, "path", values, ErrInvalidPath)
	}
}
