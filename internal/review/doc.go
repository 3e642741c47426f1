// Package review holds the pending findings of one scan and applies the
// user's verdicts to them.
//
// Every flagged item starts pending. Accept redacts the image, stores a
// "Sensitive" decision and removes the item; Dismiss stores a
// "Not Sensitive" decision and removes it. Both are terminal. When the
// decision cannot be stored the item stays pending so the user can retry.
//
// Registry keeps the controllers of the server's live scan sessions.
package review
