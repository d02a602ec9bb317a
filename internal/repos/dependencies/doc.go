// Package dependencies builds default collaborators for the scan command when
// callers do not inject their own.
package dependencies
