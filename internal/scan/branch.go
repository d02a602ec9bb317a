package scan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/notebook-audit/internal/notebooks"
	"github.com/temirov/notebook-audit/internal/repos/shared"
)

const (
	branchDirtyMessageTemplate       = "  Checking branch: %s, DIRTY. Repo: %s. Files that contain output:"
	branchDirtyFileMessageTemplate   = "      %s"
	branchCleanMessageTemplate       = "  Checking branch: %s, CLEAN"
	notebookCheckMessageConstant     = "Checking notebook for output"
	notebookCleanerFailedTemplate    = "ERROR from notebook cleaner on %s"
	branchStageSwitchConstant        = "switch branch %s"
	branchStageDiscoverConstant      = "discover notebooks on %s"
	branchStageDiffConstant          = "diff branch %s"
	branchStageResetConstant         = "reset branch %s"
	branchStageErrorTemplate         = "%s: %w"
	branchInspectorDependencyMessage = "branch inspector requires a repository manager, notebook discoverer and notebook cleaner"
	logFieldRepositoryConstant       = "repository"
	logFieldBranchConstant           = "branch"
	logFieldNotebookConstant         = "notebook"
	logFieldChangedFileCountConstant = "changed_files"
	logFieldErrorFileCountConstant   = "error_files"
)

// ErrBranchInspectorDependencies indicates a BranchInspector was built without its collaborators.
var ErrBranchInspectorDependencies = errors.New(branchInspectorDependencyMessage)

// BranchInspector strips notebook outputs on a branch and reports the notebooks that changed.
type BranchInspector struct {
	manager    shared.GitRepositoryManager
	discoverer shared.NotebookDiscoverer
	cleaner    notebooks.Cleaner
	logger     *zap.Logger
}

// NewBranchInspector constructs a BranchInspector.
func NewBranchInspector(manager shared.GitRepositoryManager, discoverer shared.NotebookDiscoverer, cleaner notebooks.Cleaner, logger *zap.Logger) (*BranchInspector, error) {
	if manager == nil || discoverer == nil || cleaner == nil {
		return nil, ErrBranchInspectorDependencies
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchInspector{manager: manager, discoverer: discoverer, cleaner: cleaner, logger: logger}, nil
}

// InspectBranch checks out branchName, cleans every notebook and inspects the
// resulting diff. The working tree is always reset afterwards, and a reset
// failure is reported even when inspection succeeded.
func (inspector *BranchInspector) InspectBranch(executionContext context.Context, repositoryName string, repositoryPath string, branchName string) (result BranchResult, inspectionError error) {
	result = BranchResult{BranchName: branchName}

	if switchError := inspector.manager.SwitchBranch(executionContext, repositoryPath, branchName); switchError != nil {
		return result, fmt.Errorf(branchStageErrorTemplate, fmt.Sprintf(branchStageSwitchConstant, branchName), switchError)
	}

	defer func() {
		resetError := inspector.manager.ResetHard(executionContext, repositoryPath)
		if resetError != nil && inspectionError == nil {
			inspectionError = fmt.Errorf(branchStageErrorTemplate, fmt.Sprintf(branchStageResetConstant, branchName), resetError)
		}
	}()

	notebookPaths, discoveryError := inspector.discoverer.DiscoverNotebooks(repositoryPath)
	if discoveryError != nil {
		return result, fmt.Errorf(branchStageErrorTemplate, fmt.Sprintf(branchStageDiscoverConstant, branchName), discoveryError)
	}

	failedNotebooks := make(map[string]struct{})
	for _, notebookPath := range notebookPaths {
		relativePath := relativeRepositoryPath(repositoryPath, notebookPath)
		inspector.logger.Debug(notebookCheckMessageConstant, zap.String(logFieldNotebookConstant, relativePath))

		if cleanError := inspector.cleaner.Clean(executionContext, notebookPath); cleanError != nil {
			if contextError := executionContext.Err(); contextError != nil {
				return result, contextError
			}
			inspector.logger.Warn(
				fmt.Sprintf(notebookCleanerFailedTemplate, relativePath),
				zap.String(logFieldRepositoryConstant, repositoryName),
				zap.String(logFieldBranchConstant, branchName),
				zap.Error(cleanError),
			)
			result.ErrorFiles++
			failedNotebooks[relativePath] = struct{}{}
		}
	}

	changedFiles, diffError := inspector.manager.ChangedFiles(executionContext, repositoryPath)
	if diffError != nil {
		return result, fmt.Errorf(branchStageErrorTemplate, fmt.Sprintf(branchStageDiffConstant, branchName), diffError)
	}

	for _, changedFile := range changedFiles {
		if _, failed := failedNotebooks[filepath.ToSlash(changedFile)]; failed {
			continue
		}
		result.ChangedFiles = append(result.ChangedFiles, changedFile)
	}

	if result.Dirty() {
		inspector.logger.Warn(
			fmt.Sprintf(branchDirtyMessageTemplate, branchName, repositoryName),
			zap.String(logFieldRepositoryConstant, repositoryName),
			zap.String(logFieldBranchConstant, branchName),
			zap.Int(logFieldChangedFileCountConstant, len(result.ChangedFiles)),
			zap.Int(logFieldErrorFileCountConstant, result.ErrorFiles),
		)
		for _, changedFile := range result.ChangedFiles {
			inspector.logger.Warn(fmt.Sprintf(branchDirtyFileMessageTemplate, changedFile))
		}
		return result, nil
	}

	inspector.logger.Info(
		fmt.Sprintf(branchCleanMessageTemplate, branchName),
		zap.String(logFieldRepositoryConstant, repositoryName),
		zap.Int(logFieldErrorFileCountConstant, result.ErrorFiles),
	)
	return result, nil
}

func relativeRepositoryPath(repositoryPath string, notebookPath string) string {
	relativePath, relativeError := filepath.Rel(repositoryPath, notebookPath)
	if relativeError != nil {
		return filepath.ToSlash(notebookPath)
	}
	return filepath.ToSlash(relativePath)
}
