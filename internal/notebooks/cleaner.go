package notebooks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/notebook-audit/internal/execshell"
)

const (
	// CleanerKindExternal selects the nbstripout command line tool.
	CleanerKindExternal = CleanerKind("external")
	// CleanerKindBuiltin selects the in-process output stripper.
	CleanerKindBuiltin = CleanerKind("builtin")

	executorNotConfiguredMessageConstant = "notebook cleaner executor not configured"
	unsupportedCleanerKindTemplate       = "unsupported notebook cleaner %q (expected external or builtin)"
	cleanFailureTemplateConstant         = "clean %s: %w"
)

// CleanerKind names a Cleaner implementation.
type CleanerKind string

// Cleaner strips execution outputs from a single notebook file in place.
type Cleaner interface {
	Clean(executionContext context.Context, notebookPath string) error
}

// NotebookCleanerExecutor runs the external notebook cleaner command.
type NotebookCleanerExecutor interface {
	ExecuteNotebookCleaner(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ErrExecutorNotConfigured indicates the external cleaner was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ExternalCleaner delegates to nbstripout.
type ExternalCleaner struct {
	executor NotebookCleanerExecutor
}

// NewExternalCleaner constructs an ExternalCleaner.
func NewExternalCleaner(executor NotebookCleanerExecutor) (*ExternalCleaner, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &ExternalCleaner{executor: executor}, nil
}

// Clean runs nbstripout against notebookPath.
func (cleaner *ExternalCleaner) Clean(executionContext context.Context, notebookPath string) error {
	_, executionError := cleaner.executor.ExecuteNotebookCleaner(executionContext, execshell.CommandDetails{
		Arguments: []string{notebookPath},
	})
	if executionError != nil {
		return fmt.Errorf(cleanFailureTemplateConstant, notebookPath, executionError)
	}
	return nil
}

// ParseCleanerKind validates a configured cleaner name.
func ParseCleanerKind(value string) (CleanerKind, error) {
	switch CleanerKind(strings.ToLower(strings.TrimSpace(value))) {
	case CleanerKindExternal:
		return CleanerKindExternal, nil
	case CleanerKindBuiltin:
		return CleanerKindBuiltin, nil
	default:
		return "", fmt.Errorf(unsupportedCleanerKindTemplate, value)
	}
}

// NewCleaner builds the Cleaner selected by kind.
func NewCleaner(kind CleanerKind, executor NotebookCleanerExecutor) (Cleaner, error) {
	switch kind {
	case CleanerKindBuiltin:
		return NewBuiltinCleaner(), nil
	case CleanerKindExternal:
		return NewExternalCleaner(executor)
	default:
		return nil, fmt.Errorf(unsupportedCleanerKindTemplate, kind)
	}
}
