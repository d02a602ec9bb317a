// Package shared holds the collaborator interfaces and value types used across
// the scan workflow.
package shared
