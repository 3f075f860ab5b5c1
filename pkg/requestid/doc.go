// Package requestid correlates a checkout request across the service and the
// billing API.
//
// Middleware accepts a valid inbound X-Request-ID (or generates a UUID) and
// stores it in the request context. Transport copies it onto outbound
// requests, and LoggerExtractor adds it to slog records.
package requestid
