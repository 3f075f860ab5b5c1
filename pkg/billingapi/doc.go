// Package billingapi is the client for the billing backend's REST API
// (base path /api/v1).
//
// It covers the calls the checkout makes: plan lookup, hosted-checkout
// subscription creation, mobile-money initiation and status polling, plus
// the tenant capability endpoints. Requests carry a bearer token from the
// Session's oauth2.TokenSource and the X-API-Key header; a 401 triggers one
// token refresh and a replay.
//
// GET requests are retried with exponential backoff on transport errors and
// 5xx/408/425/429 responses. POSTs are sent exactly once. A circuit breaker
// fails calls fast after consecutive server-side failures.
//
// Mobile-money statuses are normalized with ParseState: the backend is not
// consistent about case or spelling, and anything unrecognized is
// StateUnknown rather than pending.
package billingapi
