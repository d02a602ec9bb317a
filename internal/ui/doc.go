// Package ui renders human-readable scan feedback on the console.
//
// ScanReporter prints one colored verdict per repository and an organization
// summary, and draws a progress bar on a separate stream while detailed
// telemetry continues to flow through structured loggers.
package ui
