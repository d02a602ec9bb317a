// Package filesystem manages the on-disk clone workspace.
package filesystem
