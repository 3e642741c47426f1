// Package vision extracts text from images with the Cloud Vision
// TEXT_DETECTION feature. The first annotation carries the full text; the
// remaining annotations are individual words with their bounding polygons.
package vision
