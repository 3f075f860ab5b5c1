// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a request struct filled by binders
// (see package binder) and returns a Response. Responses know how to render
// for DataStar requests (SSE patches, redirect events) and for plain browser
// or JSON clients:
//
//	r.Post("/checkout/flows/{flowID}/submit", handler.Wrap(submit,
//		handler.WithBinders[handler.Context, FlowRequest](binder.Path(chi.URLParam)),
//		handler.WithErrorHandler[handler.Context, FlowRequest](errorHandler),
//	))
//
// Long-lived streams use SSE, which hands the handler a StreamContext.
package handler
