package scan_test

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/temirov/notebook-audit/internal/githubapi"
	"github.com/temirov/notebook-audit/internal/gitrepo"
	"github.com/temirov/notebook-audit/internal/scan"
)

type stubRepositoryManager struct {
	currentBranch      string
	remoteBranches     []string
	changedFiles       map[string][]string
	cloneError         error
	switchErrors       map[string]error
	resetError         error
	diffError          error
	listBranchesError  error
	headCommit         gitrepo.CommitSummary
	headError          error
	authorEmail        string
	authorEmailError   error
	clonedURLs         []string
	clonedPaths        []string
	switchedBranches   []string
	resetCount         int
	inspectedHeadPaths []string
}

func (manager *stubRepositoryManager) Clone(executionContext context.Context, cloneURL string, destinationPath string) error {
	manager.clonedURLs = append(manager.clonedURLs, cloneURL)
	manager.clonedPaths = append(manager.clonedPaths, destinationPath)
	return manager.cloneError
}

func (manager *stubRepositoryManager) SwitchBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	manager.switchedBranches = append(manager.switchedBranches, branchName)
	if switchError, found := manager.switchErrors[branchName]; found {
		return switchError
	}
	manager.currentBranch = branchName
	return nil
}

func (manager *stubRepositoryManager) ResetHard(executionContext context.Context, repositoryPath string) error {
	manager.resetCount++
	return manager.resetError
}

func (manager *stubRepositoryManager) ChangedFiles(executionContext context.Context, repositoryPath string) ([]string, error) {
	if manager.diffError != nil {
		return nil, manager.diffError
	}
	return manager.changedFiles[manager.currentBranch], nil
}

func (manager *stubRepositoryManager) ListRemoteBranches(executionContext context.Context, repositoryPath string) ([]string, error) {
	return manager.remoteBranches, manager.listBranchesError
}

func (manager *stubRepositoryManager) HeadCommit(repositoryPath string) (gitrepo.CommitSummary, error) {
	manager.inspectedHeadPaths = append(manager.inspectedHeadPaths, repositoryPath)
	return manager.headCommit, manager.headError
}

func (manager *stubRepositoryManager) CommitAuthorEmail(executionContext context.Context, repositoryPath string, commitHash string) (string, error) {
	return manager.authorEmail, manager.authorEmailError
}

type stubNotebookDiscoverer struct {
	relativePaths  []string
	discoveryError error
}

func (discoverer stubNotebookDiscoverer) DiscoverNotebooks(root string) ([]string, error) {
	if discoverer.discoveryError != nil {
		return nil, discoverer.discoveryError
	}
	notebookPaths := make([]string, 0, len(discoverer.relativePaths))
	for _, relativePath := range discoverer.relativePaths {
		notebookPaths = append(notebookPaths, filepath.Join(root, filepath.FromSlash(relativePath)))
	}
	return notebookPaths, nil
}

type stubNotebookCleaner struct {
	failures     map[string]error
	cleanedPaths []string
}

func (cleaner *stubNotebookCleaner) Clean(executionContext context.Context, notebookPath string) error {
	cleaner.cleanedPaths = append(cleaner.cleanedPaths, notebookPath)
	if failure, found := cleaner.failures[filepath.Base(notebookPath)]; found {
		return failure
	}
	return nil
}

type stubGitHubClient struct {
	repositories      []githubapi.Repository
	listError         error
	contributors      []githubapi.Contributor
	contributorsError error
	profiles          map[string]githubapi.UserProfile
	profileErrors     map[string]error
	requestedLimits   []int
	requestedProfiles []string
}

func (client *stubGitHubClient) ListOrganizationRepositories(executionContext context.Context, organization string) ([]githubapi.Repository, error) {
	return client.repositories, client.listError
}

func (client *stubGitHubClient) ListTopContributors(executionContext context.Context, owner string, name string, limit int) ([]githubapi.Contributor, error) {
	client.requestedLimits = append(client.requestedLimits, limit)
	return client.contributors, client.contributorsError
}

func (client *stubGitHubClient) GetUserProfile(executionContext context.Context, login string) (githubapi.UserProfile, error) {
	client.requestedProfiles = append(client.requestedProfiles, login)
	if profileError, found := client.profileErrors[login]; found {
		return githubapi.UserProfile{}, profileError
	}
	return client.profiles[login], nil
}

type stubFileSystem struct {
	mutex          sync.Mutex
	createdPaths   []string
	removedPaths   []string
	mkdirError     error
	removeErrors   map[int]error
	removeAttempts int
}

func (fileSystem *stubFileSystem) Stat(path string) (fs.FileInfo, error) {
	return nil, fs.ErrNotExist
}

func (fileSystem *stubFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	fileSystem.mutex.Lock()
	defer fileSystem.mutex.Unlock()
	fileSystem.createdPaths = append(fileSystem.createdPaths, path)
	return fileSystem.mkdirError
}

func (fileSystem *stubFileSystem) RemoveAll(path string) error {
	fileSystem.mutex.Lock()
	defer fileSystem.mutex.Unlock()
	fileSystem.removeAttempts++
	fileSystem.removedPaths = append(fileSystem.removedPaths, path)
	return fileSystem.removeErrors[fileSystem.removeAttempts]
}

type recordingObserver struct {
	selectedTotal   int
	startedEvents   []string
	completed       []scan.RepositoryStatistics
	failed          []string
	finishedSummary *scan.OrganizationSummary
}

func (observer *recordingObserver) RepositoriesSelected(total int) {
	observer.selectedTotal = total
}

func (observer *recordingObserver) RepositoryStarted(index int, total int, repositoryName string) {
	observer.startedEvents = append(observer.startedEvents, repositoryName)
}

func (observer *recordingObserver) RepositoryCompleted(statistics scan.RepositoryStatistics) {
	observer.completed = append(observer.completed, statistics)
}

func (observer *recordingObserver) RepositoryFailed(repositoryName string, failure error) {
	observer.failed = append(observer.failed, repositoryName)
}

func (observer *recordingObserver) ScanFinished(summary scan.OrganizationSummary) {
	observer.finishedSummary = &summary
}
