package dependencies

import (
	"go.uber.org/zap"

	"github.com/temirov/notebook-audit/internal/execshell"
	"github.com/temirov/notebook-audit/internal/githubapi"
	"github.com/temirov/notebook-audit/internal/gitrepo"
	"github.com/temirov/notebook-audit/internal/notebooks"
	"github.com/temirov/notebook-audit/internal/repos/filesystem"
	"github.com/temirov/notebook-audit/internal/repos/shared"
)

// ResolveNotebookDiscoverer returns the provided discoverer or a filesystem-backed default.
func ResolveNotebookDiscoverer(existing shared.NotebookDiscoverer, logger *zap.Logger) shared.NotebookDiscoverer {
	if existing != nil {
		return existing
	}
	return notebooks.NewFilesystemNotebookDiscoverer(logger)
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing shared.FileSystem) shared.FileSystem {
	if existing != nil {
		return existing
	}
	return filesystem.OSFileSystem{}
}

// ResolveShellExecutor returns the provided executor or constructs a shell-backed default.
func ResolveShellExecutor(existing shared.ShellExecutor, logger *zap.Logger) (shared.ShellExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitRepositoryManager returns the provided repository manager or constructs one from the executor.
func ResolveGitRepositoryManager(existing shared.GitRepositoryManager, executor shared.ShellExecutor) (shared.GitRepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryManager(executor)
}

// ResolveNotebookCleaner returns the provided cleaner or builds the one selected by kind.
func ResolveNotebookCleaner(existing notebooks.Cleaner, kind notebooks.CleanerKind, executor shared.ShellExecutor) (notebooks.Cleaner, error) {
	if existing != nil {
		return existing, nil
	}
	return notebooks.NewCleaner(kind, executor)
}

// ResolveGitHubClient returns the provided client or creates a token-authenticated API client.
func ResolveGitHubClient(existing shared.GitHubClient, token string, logger *zap.Logger) (shared.GitHubClient, error) {
	if existing != nil {
		return existing, nil
	}
	return githubapi.NewClient(token, logger)
}
