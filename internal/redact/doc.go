// Package redact locates a sensitive value inside an image and blurs it.
//
// Merge maps a classification value back onto OCR fragments: the value is
// split on whitespace, every token is lower-cased and stripped of
// non-word characters, and a fragment matches when its own normalized text
// equals one of the tokens. The matching quadrilaterals are unioned into
// one rectangle, padded and clamped to the image.
//
// The Redactor decodes the image, blurs only that rectangle and encodes
// the result as PNG. When nothing matches, the artifact is the source
// bytes unchanged.
package redact
