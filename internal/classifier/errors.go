package classifier

import "errors"

var (
	// ErrNoAPIKey is returned when the classifier has no API key.
	ErrNoAPIKey = errors.New("classifier: missing API key")

	// ErrMalformedReply is returned when the model reply is not the expected JSON object.
	ErrMalformedReply = errors.New("classifier: malformed reply")
)
