// Package log provides slog loggers that mask secrets and personal data.
//
// A scan moves OAuth tokens, API keys, OCR text and classifier results
// through the same code paths that log. The SecureHandler masks:
//   - credential headers and OAuth values (authorization, code, id_token, access_token)
//   - values detected by shape (JWTs, bearer tokens, Google API keys)
//   - personal data found in photos (SSNs, card numbers, e-mail addresses)
//   - attributes carrying extracted text (value, sensitive_value, full_text)
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("classified", "image_id", id, "sensitive_value", v) // v is masked
//	slog.SetDefault(logger)
package log
