package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/temirov/notebook-audit/internal/execshell"
)

const (
	gitCloneSubcommandConstant                  = "clone"
	gitQuietFlagConstant                        = "--quiet"
	gitSwitchSubcommandConstant                 = "switch"
	gitResetSubcommandConstant                  = "reset"
	gitHardFlagConstant                         = "--hard"
	gitDiffSubcommandConstant                   = "diff"
	gitNameOnlyFlagConstant                     = "--name-only"
	gitNullTerminatedFlagConstant               = "-z"
	gitHeadReferenceConstant                    = "HEAD"
	gitForEachRefSubcommandConstant             = "for-each-ref"
	gitRefnameFormatFlagConstant                = "--format=%(refname)"
	gitShowSubcommandConstant                   = "show"
	gitSuppressPatchFlagConstant                = "-s"
	gitAuthorEmailFormatFlagConstant            = "--format=%ae"
	originRemoteReferencePrefixConstant         = "refs/remotes/origin/"
	originRemoteReferenceNamespaceConstant      = "refs/remotes/origin"
	nullSeparatorConstant                       = "\x00"
	lineSeparatorConstant                       = "\n"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	executorNotConfiguredMessageConstant        = "git executor not configured"
	requiredValueMessageConstant                = "value required"
	operationErrorTemplateConstant              = "%s failed for %s: %s"
	invalidInputErrorTemplateConstant           = "%s: %s"
	cloneOperationNameConstant                  = OperationName("Clone")
	switchOperationNameConstant                 = OperationName("SwitchBranch")
	resetOperationNameConstant                  = OperationName("ResetHard")
	changedFilesOperationNameConstant           = OperationName("ChangedFiles")
	listBranchesOperationNameConstant           = OperationName("ListRemoteBranches")
	headCommitOperationNameConstant             = OperationName("HeadCommit")
	authorEmailOperationNameConstant            = OperationName("CommitAuthorEmail")
)

// OperationName names a repository manager operation in errors.
type OperationName string

// GitExecutor is the subset of execshell.ShellExecutor the manager relies on.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommitSummary describes a commit read from the object database.
type CommitSummary struct {
	Hash       string
	AuthorName string
}

var (
	// ErrExecutorNotConfigured indicates the manager was constructed without a git executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError reports a missing or malformed operation argument.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps a failed git operation together with the repository it targeted.
type OperationError struct {
	Operation OperationName
	Target    string
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Target, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// RepositoryManager performs the git operations needed to inspect a cloned repository.
type RepositoryManager struct {
	executor GitExecutor
}

// NewRepositoryManager constructs a RepositoryManager backed by executor.
func NewRepositoryManager(executor GitExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// Clone performs a full clone of cloneURL into destinationPath.
func (manager *RepositoryManager) Clone(executionContext context.Context, cloneURL string, destinationPath string) error {
	if len(strings.TrimSpace(cloneURL)) == 0 {
		return InvalidInputError{FieldName: "clone_url", Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(destinationPath)) == 0 {
		return InvalidInputError{FieldName: "destination_path", Message: requiredValueMessageConstant}
	}

	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:            []string{gitCloneSubcommandConstant, gitQuietFlagConstant, cloneURL, destinationPath},
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant},
	})
	if executionError != nil {
		return OperationError{Operation: cloneOperationNameConstant, Target: destinationPath, Cause: executionError}
	}
	return nil
}

// SwitchBranch checks out branchName, creating a local tracking branch from origin when needed.
func (manager *RepositoryManager) SwitchBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if len(strings.TrimSpace(branchName)) == 0 {
		return InvalidInputError{FieldName: "branch_name", Message: requiredValueMessageConstant}
	}
	return manager.run(executionContext, switchOperationNameConstant, repositoryPath, gitSwitchSubcommandConstant, branchName)
}

// ResetHard discards every working tree and index modification.
func (manager *RepositoryManager) ResetHard(executionContext context.Context, repositoryPath string) error {
	return manager.run(executionContext, resetOperationNameConstant, repositoryPath, gitResetSubcommandConstant, gitHardFlagConstant)
}

// ChangedFiles lists paths, relative to the repository root, that differ from the HEAD commit.
// Paths are taken verbatim from the NUL separated output.
func (manager *RepositoryManager) ChangedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitDiffSubcommandConstant, gitNameOnlyFlagConstant, gitNullTerminatedFlagConstant, gitHeadReferenceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, OperationError{Operation: changedFilesOperationNameConstant, Target: repositoryPath, Cause: executionError}
	}

	var changedFiles []string
	for _, changedFile := range strings.Split(executionResult.StandardOutput, nullSeparatorConstant) {
		if len(changedFile) == 0 {
			continue
		}
		changedFiles = append(changedFiles, changedFile)
	}
	return changedFiles, nil
}

// ListRemoteBranches returns origin's branch names without the remote prefix and without HEAD.
// Names are returned in the order git lists the references.
func (manager *RepositoryManager) ListRemoteBranches(executionContext context.Context, repositoryPath string) ([]string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitForEachRefSubcommandConstant, gitRefnameFormatFlagConstant, originRemoteReferenceNamespaceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return nil, OperationError{Operation: listBranchesOperationNameConstant, Target: repositoryPath, Cause: executionError}
	}

	var branches []string
	for _, reference := range strings.Split(executionResult.StandardOutput, lineSeparatorConstant) {
		trimmedReference := strings.TrimSpace(reference)
		if !strings.HasPrefix(trimmedReference, originRemoteReferencePrefixConstant) {
			continue
		}
		branchName := strings.TrimPrefix(trimmedReference, originRemoteReferencePrefixConstant)
		if len(branchName) == 0 || branchName == gitHeadReferenceConstant {
			continue
		}
		branches = append(branches, branchName)
	}
	return branches, nil
}

// HeadCommit reads the commit currently checked out in repositoryPath.
func (manager *RepositoryManager) HeadCommit(repositoryPath string) (CommitSummary, error) {
	repository, openError := git.PlainOpen(repositoryPath)
	if openError != nil {
		return CommitSummary{}, OperationError{Operation: headCommitOperationNameConstant, Target: repositoryPath, Cause: openError}
	}

	headReference, headError := repository.Head()
	if headError != nil {
		return CommitSummary{}, OperationError{Operation: headCommitOperationNameConstant, Target: repositoryPath, Cause: headError}
	}

	commit, commitError := repository.CommitObject(headReference.Hash())
	if commitError != nil {
		return CommitSummary{}, OperationError{Operation: headCommitOperationNameConstant, Target: repositoryPath, Cause: commitError}
	}

	return CommitSummary{Hash: commit.Hash.String(), AuthorName: commit.Author.Name}, nil
}

// CommitAuthorEmail reads the author email of commitHash straight from git's commit metadata.
func (manager *RepositoryManager) CommitAuthorEmail(executionContext context.Context, repositoryPath string, commitHash string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitShowSubcommandConstant, gitSuppressPatchFlagConstant, gitAuthorEmailFormatFlagConstant, commitHash},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", OperationError{Operation: authorEmailOperationNameConstant, Target: repositoryPath, Cause: executionError}
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

func (manager *RepositoryManager) run(executionContext context.Context, operation OperationName, repositoryPath string, arguments ...string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return OperationError{Operation: operation, Target: repositoryPath, Cause: executionError}
	}
	return nil
}
