package handler

import (
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

const (
	// DataStarHeader is set to "true" on every request DataStar issues.
	DataStarHeader = "Datastar-Request"
	// DataStarQueryParam carries signals on DataStar GET requests.
	DataStarQueryParam = "datastar"
)

const (
	PatchOuter   = datastar.ElementPatchModeOuter
	PatchInner   = datastar.ElementPatchModeInner
	PatchReplace = datastar.ElementPatchModeReplace
	PatchRemove  = datastar.ElementPatchModeRemove
	PatchAppend  = datastar.ElementPatchModeAppend
	PatchPrepend = datastar.ElementPatchModePrepend
)

// IsDataStar reports whether r was issued by DataStar and expects an event stream.
func IsDataStar(r *http.Request) bool {
	if r.Header.Get(DataStarHeader) == "true" {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}
	return r.URL.Query().Has(DataStarQueryParam)
}

// WantsJSON reports whether the client asked for JSON.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func NewSSE(w http.ResponseWriter, r *http.Request) *datastar.ServerSentEventGenerator {
	return datastar.NewSSE(w, r)
}

type redirectResponse struct {
	url  string
	code int
}

func (rr redirectResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		return datastar.NewSSE(w, r).Redirect(rr.url)
	}
	http.Redirect(w, r, rr.url, rr.code)
	return nil
}

// Redirect sends the browser to url: a DataStar redirect event for DataStar
// requests, 303 See Other otherwise.
func Redirect(url string) Response {
	return redirectResponse{url: url, code: http.StatusSeeOther}
}
