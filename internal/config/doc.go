// Package config provides configuration structures and utilities for privasee.
// It defines scan limits, credentials for the Google APIs, the flag store
// location and report preferences, and loads them from a YAML file,
// a .env file and the process environment.
package config
