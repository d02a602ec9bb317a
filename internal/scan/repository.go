package scan

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/notebook-audit/internal/githubapi"
	"github.com/temirov/notebook-audit/internal/gitrepo"
	"github.com/temirov/notebook-audit/internal/repos/shared"
)

const (
	cloneRootPermissionsConstant        = 0o755
	repositoryStagePrepareConstant      = "prepare clone directory"
	repositoryStageCloneConstant        = "clone"
	repositoryStageBranchesConstant     = "list branches"
	repositoryStageInspectConstant      = "inspect branch"
	branchesListedMessageTemplate       = "  Branches: %v"
	repositoryCleanMessageTemplate      = "Repo %s is CLEAN"
	repositoryDirtyMessageTemplate      = "Repo %s is DIRTY"
	repositoryStatisticsMessageConstant = "Repository statistics"
	contactResolutionFailedMessage      = "Could not resolve repository contact"
	cloneRemovalFailedMessage           = "Could not remove clone directory"
	repositoryInspectorDependencyMsg    = "repository inspector requires a repository manager, filesystem, branch inspector and contact resolver"
	logFieldClonePathConstant           = "clone_path"
	logFieldStatisticsConstant          = "statistics"
)

// ErrRepositoryInspectorDependencies indicates a RepositoryInspector was built without its collaborators.
var ErrRepositoryInspectorDependencies = errors.New(repositoryInspectorDependencyMsg)

// RepositoryInspector clones a repository, inspects every remote branch and
// resolves a remediation contact. At most one clone exists at a time under
// the clone root.
type RepositoryInspector struct {
	manager         shared.GitRepositoryManager
	fileSystem      shared.FileSystem
	branchInspector *BranchInspector
	contactResolver *ContactResolver
	logger          *zap.Logger
	token           string
	cloneRoot       string
}

// RepositoryInspectorOptions configures a RepositoryInspector.
type RepositoryInspectorOptions struct {
	Token     string
	CloneRoot string
}

// NewRepositoryInspector constructs a RepositoryInspector.
func NewRepositoryInspector(manager shared.GitRepositoryManager, fileSystem shared.FileSystem, branchInspector *BranchInspector, contactResolver *ContactResolver, logger *zap.Logger, options RepositoryInspectorOptions) (*RepositoryInspector, error) {
	if manager == nil || fileSystem == nil || branchInspector == nil || contactResolver == nil {
		return nil, ErrRepositoryInspectorDependencies
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepositoryInspector{
		manager:         manager,
		fileSystem:      fileSystem,
		branchInspector: branchInspector,
		contactResolver: contactResolver,
		logger:          logger,
		token:           options.Token,
		cloneRoot:       options.CloneRoot,
	}, nil
}

// InspectRepository scans every branch of repository and returns its statistics.
// The clone is deleted on every exit path.
func (inspector *RepositoryInspector) InspectRepository(executionContext context.Context, repository githubapi.Repository) (RepositoryStatistics, error) {
	clonePath := filepath.Join(inspector.cloneRoot, repository.Name)

	if mkdirError := inspector.fileSystem.MkdirAll(inspector.cloneRoot, cloneRootPermissionsConstant); mkdirError != nil {
		return RepositoryStatistics{}, RepositoryScanError{Repository: repository.FullName, Stage: repositoryStagePrepareConstant, Cause: mkdirError}
	}
	if removeError := inspector.fileSystem.RemoveAll(clonePath); removeError != nil {
		return RepositoryStatistics{}, RepositoryScanError{Repository: repository.FullName, Stage: repositoryStagePrepareConstant, Cause: removeError}
	}

	defer inspector.removeClone(clonePath)

	cloneURL := gitrepo.CredentialsURL(repository.CloneURL, inspector.token)
	if cloneError := inspector.manager.Clone(executionContext, cloneURL, clonePath); cloneError != nil {
		return RepositoryStatistics{}, RepositoryScanError{Repository: repository.FullName, Stage: repositoryStageCloneConstant, Cause: cloneError}
	}

	branches, branchesError := inspector.manager.ListRemoteBranches(executionContext, clonePath)
	if branchesError != nil {
		return RepositoryStatistics{}, RepositoryScanError{Repository: repository.FullName, Stage: repositoryStageBranchesConstant, Cause: branchesError}
	}
	inspector.logger.Info(fmt.Sprintf(branchesListedMessageTemplate, branches), zap.String(logFieldRepositoryConstant, repository.FullName))

	statistics := NewRepositoryStatistics(repository.FullName)
	for _, branchName := range branches {
		branchResult, branchError := inspector.branchInspector.InspectBranch(executionContext, repository.FullName, clonePath, branchName)
		if branchError != nil {
			return RepositoryStatistics{}, RepositoryScanError{Repository: repository.FullName, Stage: repositoryStageInspectConstant, Cause: branchError}
		}
		statistics.Accumulate(branchResult)
	}

	contact, contactError := inspector.contactResolver.ResolveContact(executionContext, repository, clonePath)
	if contactError != nil {
		inspector.logger.Warn(contactResolutionFailedMessage, zap.String(logFieldRepositoryConstant, repository.FullName), zap.Error(contactError))
	} else {
		statistics.ApplyContact(contact)
	}

	if statistics.State == RepositoryStateDirty {
		inspector.logger.Warn(fmt.Sprintf(repositoryDirtyMessageTemplate, repository.FullName))
	} else {
		inspector.logger.Info(fmt.Sprintf(repositoryCleanMessageTemplate, repository.FullName))
	}
	inspector.logger.Info(repositoryStatisticsMessageConstant, zap.Any(logFieldStatisticsConstant, statistics))

	return statistics, nil
}

func (inspector *RepositoryInspector) removeClone(clonePath string) {
	if removeError := inspector.fileSystem.RemoveAll(clonePath); removeError != nil {
		inspector.logger.Warn(cloneRemovalFailedMessage, zap.String(logFieldClonePathConstant, clonePath), zap.Error(removeError))
	}
}
