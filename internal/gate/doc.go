// Package gate runs text extraction and sensitivity classification over
// scan candidates and keeps the sensitive ones.
//
// Candidates are processed one at a time in input order. Each candidate
// folds into an Outcome that either carries a flagged item or a skip
// reason; a failing call only skips its own candidate. The gate stops
// querying once the findings cap is reached, and discards everything when
// its context ends before the run completes.
package gate
