// Package cli constructs the notebook-audit command-line interface, wiring the
// Cobra command hierarchy, the layered configuration loader and the zap
// logger with its log file tee.
package cli
