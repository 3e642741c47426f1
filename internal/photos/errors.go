package photos

import "errors"

var (
	// ErrNoCredential is returned before any request when the session has no access token.
	ErrNoCredential = errors.New("no access token: sign in to the photo library first")

	// ErrEmptyURL is returned by Download for an item without a fetch URL.
	ErrEmptyURL = errors.New("media item has no base URL")
)
