// Package model defines the data structures shared by the scan pipeline.
//
// This package contains the following main types:
//   - MediaItem: an item listed from the photo library
//   - TextFragment: a recognized word with its pixel-space quadrilateral
//   - Classification: a category label and the extracted value
//   - Candidate / FlaggedItem: an item joined with its text and classification
//   - DecisionRecord: the durable (imageId, status) verdict
//   - ScanReport / Summary: the result of one scan, full and summarized
//
// Models live in their own package so that photos, gate, redact, review,
// store and report can share them without import cycles.
package model
