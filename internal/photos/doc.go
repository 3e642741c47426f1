// Package photos lists a user's photo library and walks it page by page.
//
// The Client talks to the Google Photos Library API. Walk accumulates
// image items across pages until the cursor is exhausted or the item cap
// is reached; the cap is checked after each page is appended, so the
// result may overshoot it by up to one page. Exclude removes items that
// already carry a decision so they are not classified again.
package photos
