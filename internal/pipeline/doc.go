// Package pipeline runs a scan as an ordered list of steps.
//
// A scan walks the photo library, drops images that already carry a
// decision, runs the classification gate over the rest and finally stores
// the report. Each step receives the caller's session and the report being
// built. The BatchProcessor scans several accounts concurrently using
// errgroup with a concurrency limit.
package pipeline
