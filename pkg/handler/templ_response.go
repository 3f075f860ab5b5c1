package handler

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"
)

// TemplOption configures how a component is patched into the page.
type TemplOption = datastar.PatchElementOption

// WithTarget sets the CSS selector the component is patched into.
func WithTarget(selector string) TemplOption {
	return datastar.WithSelector(selector)
}

func WithPatchMode(mode datastar.ElementPatchMode) TemplOption {
	return datastar.WithMode(mode)
}

// TemplPatch is a component with its own patch options.
type TemplPatch struct {
	Component templ.Component
	Options   []TemplOption
}

func Patch(component templ.Component, opts ...TemplOption) TemplPatch {
	return TemplPatch{Component: component, Options: opts}
}

type templResponse struct {
	partial templ.Component
	full    templ.Component
	status  int
	options []TemplOption
}

func (t templResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		return datastar.NewSSE(w, r).PatchElementTempl(t.partial, t.options...)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if t.status != 0 {
		w.WriteHeader(t.status)
	}
	return t.full.Render(r.Context(), w)
}

// Templ renders component as HTML, or patches it over SSE for DataStar requests.
func Templ(component templ.Component, opts ...TemplOption) Response {
	return templResponse{partial: component, full: component, options: opts}
}

// TemplStatus is Templ with an explicit status for plain HTML responses.
func TemplStatus(status int, component templ.Component) Response {
	return templResponse{partial: component, full: component, status: status}
}

// TemplPartial patches partial for DataStar requests and renders full otherwise.
func TemplPartial(partial, full templ.Component, opts ...TemplOption) Response {
	return templResponse{partial: partial, full: full, options: opts}
}

type templMultiResponse struct {
	patches []TemplPatch
}

func (t templMultiResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if IsDataStar(r) {
		sse := datastar.NewSSE(w, r)
		for _, p := range t.patches {
			if err := sse.PatchElementTempl(p.Component, p.Options...); err != nil {
				return err
			}
		}
		return nil
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	for _, p := range t.patches {
		if err := p.Component.Render(r.Context(), w); err != nil {
			return err
		}
	}
	return nil
}

// TemplMulti sends one patch per component to DataStar, or the concatenated
// HTML to plain requests.
func TemplMulti(patches ...TemplPatch) Response {
	return templMultiResponse{patches: patches}
}
