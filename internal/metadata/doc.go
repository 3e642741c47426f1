// Package metadata reports EXIF tags in a photo that reveal more than the
// pixels do: GPS position, device identifiers, author names and timestamps.
// Review uses it to warn when an exported file still carries them.
package metadata
