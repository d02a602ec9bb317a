package shared

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/temirov/notebook-audit/internal/execshell"
	"github.com/temirov/notebook-audit/internal/githubapi"
	"github.com/temirov/notebook-audit/internal/gitrepo"
)

const (
	ownerRepositorySeparatorConstant   = "/"
	ownerRepositoryRequiredMessage     = "repository name required"
	ownerRepositoryFormatErrorTemplate = "repository %q must be formatted as owner/name"
)

// ErrOwnerRepositoryRequired indicates an empty owner/name value.
var ErrOwnerRepositoryRequired = errors.New(ownerRepositoryRequiredMessage)

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FileSystem exposes the clone workspace operations.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	MkdirAll(path string, permissions fs.FileMode) error
	RemoveAll(path string) error
}

// ShellExecutor exposes the external commands run during a scan.
type ShellExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteNotebookCleaner(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitRepositoryManager exposes the repository-level git operations of a scan.
type GitRepositoryManager interface {
	Clone(executionContext context.Context, cloneURL string, destinationPath string) error
	SwitchBranch(executionContext context.Context, repositoryPath string, branchName string) error
	ResetHard(executionContext context.Context, repositoryPath string) error
	ChangedFiles(executionContext context.Context, repositoryPath string) ([]string, error)
	ListRemoteBranches(executionContext context.Context, repositoryPath string) ([]string, error)
	HeadCommit(repositoryPath string) (gitrepo.CommitSummary, error)
	CommitAuthorEmail(executionContext context.Context, repositoryPath string, commitHash string) (string, error)
}

// NotebookDiscoverer locates notebooks inside a working tree.
type NotebookDiscoverer interface {
	DiscoverNotebooks(root string) ([]string, error)
}

// GitHubClient exposes the GitHub API calls of a scan.
type GitHubClient interface {
	ListOrganizationRepositories(executionContext context.Context, organization string) ([]githubapi.Repository, error)
	ListTopContributors(executionContext context.Context, owner string, name string, limit int) ([]githubapi.Contributor, error)
	GetUserProfile(executionContext context.Context, login string) (githubapi.UserProfile, error)
}

// OwnerRepository is a validated owner/name repository identifier.
type OwnerRepository struct {
	owner string
	name  string
}

// NewOwnerRepository parses an owner/name value.
func NewOwnerRepository(raw string) (OwnerRepository, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 0 {
		return OwnerRepository{}, ErrOwnerRepositoryRequired
	}

	parts := strings.Split(trimmed, ownerRepositorySeparatorConstant)
	if len(parts) != 2 || len(strings.TrimSpace(parts[0])) == 0 || len(strings.TrimSpace(parts[1])) == 0 {
		return OwnerRepository{}, fmt.Errorf(ownerRepositoryFormatErrorTemplate, raw)
	}

	return OwnerRepository{owner: strings.TrimSpace(parts[0]), name: strings.TrimSpace(parts[1])}, nil
}

// Owner returns the owner segment.
func (ownerRepository OwnerRepository) Owner() string {
	return ownerRepository.owner
}

// Name returns the repository segment.
func (ownerRepository OwnerRepository) Name() string {
	return ownerRepository.name
}

// String renders owner/name.
func (ownerRepository OwnerRepository) String() string {
	return ownerRepository.owner + ownerRepositorySeparatorConstant + ownerRepository.name
}

// Matches reports whether fullName refers to the same repository, ignoring case.
func (ownerRepository OwnerRepository) Matches(fullName string) bool {
	return strings.EqualFold(ownerRepository.String(), strings.TrimSpace(fullName))
}
