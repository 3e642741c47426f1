// Package store persists review decisions and scan history.
//
// Two backends implement Store:
//   - SQLite (modernc.org/sqlite), a single file under the XDG data directory
//   - PostgreSQL (pgx/v5 pgxpool), for the hosted server
//
// Decisions are keyed by image id; writing a second decision for the same
// image overwrites the first. Only the two statuses defined in the model
// package are accepted.
package store
