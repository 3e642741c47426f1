// Package transport sends JSON requests to the Google APIs used by privasee.
// Every request gets a request id that appears in the request and response
// log lines, and non-2xx responses become *StatusError values.
package transport
