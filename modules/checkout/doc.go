// Package checkout serves checkout flows over HTTP.
//
// GET /checkout/{planID}?customer_id=N creates a flow and renders the page.
// The page opens GET /checkout/flows/{flowID}/events, a DataStar event
// stream that patches the #checkout fragment on every flow change and
// follows the redirect to a hosted card checkout. Form controls post to
// /checkout/flows/{flowID}/{method,country,phone,submit,cancel,retry,abort}.
// Every route also answers plain form posts and JSON clients.
//
// Flows live in a Registry and are closed when they expire, are evicted or
// the service shuts down.
package checkout
