package binder

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

// Signals decodes DataStar signals into v using its json tags. DataStar sends
// them in the "datastar" query parameter on GET and as a JSON body otherwise.
// Non-DataStar requests and DataStar form submissions are not applicable.
func Signals() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if !isDataStar(r) {
			return ErrNotApplicable
		}
		if _, err := structValue(v, ErrInvalidSignals); err != nil {
			return err
		}
		if r.Method != http.MethodGet {
			if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
				return ErrNotApplicable
			}
			if r.ContentLength == 0 {
				return nil
			}
		}
		if err := datastar.ReadSignals(r, v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignals, err)
		}
		return nil
	}
}

func isDataStar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true" ||
		r.URL.Query().Has("datastar") ||
		strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}
