// Package classifier asks a Gemini model whether OCR text contains
// personally identifiable information.
//
// The model is prompted to answer with a single JSON object
// {"type": ..., "value": ...}. Replies are stripped of Markdown code
// fences, validated against a JSON schema and canonicalized into a
// model.Classification. A reply that is not valid JSON, or does not match
// the schema, yields ErrMalformedReply.
package classifier
