// Package auth talks to the Google identity provider: it builds the consent
// URL, exchanges authorization codes for tokens and reads the user's display
// name from the id token.
package auth
