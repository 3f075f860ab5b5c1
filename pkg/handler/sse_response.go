package handler

import (
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"
)

// StreamContext is a Context bound to an open DataStar event stream.
type StreamContext interface {
	Context

	// SendComponent patches a component into the page.
	SendComponent(component templ.Component, opts ...TemplOption) error
	SendMultiple(patches ...TemplPatch) error
	// SendSignals merges values into the page's signals.
	SendSignals(signals map[string]any) error
	// Redirect navigates the page.
	Redirect(url string) error
}

// SSEHandler runs for the lifetime of a stream. The stream ends when it
// returns or the client disconnects.
type SSEHandler func(stream StreamContext) error

type sseResponse struct {
	handler SSEHandler
}

func (s sseResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if !IsDataStar(r) {
		return NewHTTPError(http.StatusBadRequest, "sse_requires_datastar")
	}
	return s.handler(&streamContext{
		Context: NewContext(w, r),
		sse:     datastar.NewSSE(w, r),
	})
}

// SSE keeps the request open as a DataStar event stream driven by h.
//
//	return handler.SSE(func(stream handler.StreamContext) error {
//		sub := flow.Subscribe(stream)
//		for msg := range sub.Receive(stream) {
//			if err := stream.SendComponent(views.Panel(msg.Data)); err != nil {
//				return err
//			}
//		}
//		return nil
//	})
func SSE(h SSEHandler) Response {
	return sseResponse{handler: h}
}

type streamContext struct {
	Context
	sse *datastar.ServerSentEventGenerator
}

func (c *streamContext) SSE() *datastar.ServerSentEventGenerator { return c.sse }

func (c *streamContext) SendComponent(component templ.Component, opts ...TemplOption) error {
	return c.sse.PatchElementTempl(component, opts...)
}

func (c *streamContext) SendMultiple(patches ...TemplPatch) error {
	for _, p := range patches {
		if err := c.sse.PatchElementTempl(p.Component, p.Options...); err != nil {
			return err
		}
	}
	return nil
}

func (c *streamContext) SendSignals(signals map[string]any) error {
	data, err := json.Marshal(signals)
	if err != nil {
		return err
	}
	return c.sse.PatchSignals(data)
}

func (c *streamContext) Redirect(url string) error {
	return c.sse.Redirect(url)
}
