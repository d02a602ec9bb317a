// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with zap logging and credential
// redaction, and exposes typed entry points for git and the nbstripout
// notebook cleaner. OSCommandRunner is the os/exec-backed default; tests
// substitute recording runners.
package execshell
