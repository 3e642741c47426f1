// Package server exposes privasee over HTTP.
//
// The API keeps the routes of the browser client (OAuth, photo listing,
// text detection, classification, decisions, image proxy, frontend logs)
// and adds scan sessions: POST /scans runs a whole scan on the server and
// the /scans/{id} routes drive the review of its findings. A built single
// page application is served from the static directory when present.
package server
