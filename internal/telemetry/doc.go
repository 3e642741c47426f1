// Package telemetry records product analytics events.
//
// GA4 sends events through the Google Analytics 4 Measurement Protocol;
// Noop discards them and is used when analytics is not configured.
// Tracking never fails the caller: delivery errors are logged and dropped.
package telemetry
