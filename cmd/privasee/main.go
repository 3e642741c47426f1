// Package main provides the entry point for the privasee CLI.
//
// privasee finds photos in a Google Photos library whose visible text
// carries personal information, and lets the owner review each one.
//
// Usage:
//
//	privasee scan
//	privasee review list
//	privasee review accept <image-id>
//	privasee serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
