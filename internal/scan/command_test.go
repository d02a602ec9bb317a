package scan_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/notebook-audit/internal/githubapi"
	"github.com/temirov/notebook-audit/internal/githubauth"
	"github.com/temirov/notebook-audit/internal/scan"
	pathutils "github.com/temirov/notebook-audit/internal/utils/path"
)

const (
	testCommandTokenConstant = "env-token"
)

type fixedClock struct {
	instant time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.instant
}

type commandFixture struct {
	builder      *scan.CommandBuilder
	manager      *stubRepositoryManager
	githubClient *stubGitHubClient
	cleaner      *stubNotebookCleaner
}

func newCommandFixture(configuration scan.CommandConfiguration, environment map[string]string) commandFixture {
	manager := &stubRepositoryManager{
		remoteBranches: []string{"main"},
		changedFiles:   map[string][]string{"main": {"a.ipynb"}},
	}
	githubClient := &stubGitHubClient{
		repositories: []githubapi.Repository{
			{Owner: "acme", Name: "one", FullName: "acme/one", CloneURL: "https://github.com/acme/one.git", DefaultBranch: "main", Languages: []string{"Jupyter Notebook"}},
			{Owner: "acme", Name: "two", FullName: "acme/two", CloneURL: "https://github.com/acme/two.git", DefaultBranch: "main", Languages: []string{"Jupyter Notebook"}},
		},
		contributors: []githubapi.Contributor{{Login: "ada", Contributions: 3}},
		profiles:     map[string]githubapi.UserProfile{"ada": {Login: "ada", Name: "Ada", Email: "ada@example.com"}},
	}
	cleaner := &stubNotebookCleaner{}

	builder := &scan.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() scan.CommandConfiguration { return configuration },
		GitManager:            manager,
		GitHubClient:          githubClient,
		FileSystem:            &stubFileSystem{},
		Discoverer:            stubNotebookDiscoverer{relativePaths: []string{"a.ipynb"}},
		Cleaner:               cleaner,
		Clock:                 fixedClock{instant: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
		EnvironmentLookup: func(key string) (string, bool) {
			value, exists := environment[key]
			return value, exists
		},
		HomeExpander: pathutils.NewHomeExpanderWithProvider(func() (string, error) { return "/home/auditor", nil }),
	}

	return commandFixture{builder: builder, manager: manager, githubClient: githubClient, cleaner: cleaner}
}

func TestScanCommandFlagsOverrideConfiguration(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	reportPath := filepath.Join(workingDirectory, "report.csv")
	cloneRoot := filepath.Join(workingDirectory, "clones")

	configuration := scan.DefaultCommandConfiguration()
	configuration.Organization = "configured-org"
	fixture := newCommandFixture(configuration, map[string]string{githubauth.EnvGitHubToken: testCommandTokenConstant})

	command, buildError := fixture.builder.Build()
	require.NoError(testInstance, buildError)
	command.SetArgs([]string{
		"--organization", "acme",
		"--clone-root", cloneRoot,
		"--repository", "acme/two",
		"--report", reportPath,
		"--report-format", "CSV",
	})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, []string{"https://env-token@github.com/acme/two.git"}, fixture.manager.clonedURLs)
	require.Equal(testInstance, []string{filepath.Join(cloneRoot, "two")}, fixture.manager.clonedPaths)

	reportContents, readError := os.ReadFile(reportPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(reportContents), "acme/two,DIRTY,1,1,0,Ada,ada@example.com,1,main")
}

func TestScanCommandPositionalTokenWins(testInstance *testing.T) {
	fixture := newCommandFixture(scan.DefaultCommandConfiguration(), map[string]string{githubauth.EnvGitHubToken: testCommandTokenConstant})

	command, buildError := fixture.builder.Build()
	require.NoError(testInstance, buildError)
	command.SetArgs([]string{"explicit-token", "--clone-root", testInstance.TempDir(), "--repository", "acme/one"})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, []string{"https://explicit-token@github.com/acme/one.git"}, fixture.manager.clonedURLs)
}

func TestScanCommandErrors(testInstance *testing.T) {
	testCases := []struct {
		name          string
		environment   map[string]string
		arguments     []string
		listError     error
		expectedError error
	}{
		{
			name:          "missing_token",
			environment:   map[string]string{},
			expectedError: githubauth.ErrTokenNotFound,
		},
		{
			name:        "malformed_repository",
			environment: map[string]string{githubauth.EnvGitHubCLIToken: testCommandTokenConstant},
			arguments:   []string{"--repository", "no-slash"},
		},
		{
			name:        "unknown_cleaner",
			environment: map[string]string{githubauth.EnvGitHubCLIToken: testCommandTokenConstant},
			arguments:   []string{"--cleaner", "jq"},
		},
		{
			name:        "listing_failure",
			environment: map[string]string{githubauth.EnvGitHubCLIToken: testCommandTokenConstant},
			listError:   errors.New("bad credentials"),
		},
		{
			name:        "too_many_arguments",
			environment: map[string]string{githubauth.EnvGitHubCLIToken: testCommandTokenConstant},
			arguments:   []string{"one", "two"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newCommandFixture(scan.DefaultCommandConfiguration(), testCase.environment)
			fixture.githubClient.listError = testCase.listError

			command, buildError := fixture.builder.Build()
			require.NoError(testInstance, buildError)
			command.SetArgs(append([]string{"--clone-root", testInstance.TempDir()}, testCase.arguments...))

			executionError := command.Execute()
			require.Error(testInstance, executionError)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, executionError, testCase.expectedError)
			}
			if testCase.listError != nil {
				require.ErrorIs(testInstance, executionError, testCase.listError)
			}
			require.Empty(testInstance, fixture.manager.clonedURLs)
		})
	}
}

func TestScanCommandObserverSettings(testInstance *testing.T) {
	fixture := newCommandFixture(scan.DefaultCommandConfiguration(), map[string]string{githubauth.EnvGitHubCLIToken: testCommandTokenConstant})
	fixture.builder.HumanReadableLoggingProvider = func() bool { return true }

	var receivedSettings []scan.ObserverSettings
	recorder := &recordingObserver{}
	fixture.builder.ObserverFactory = func(settings scan.ObserverSettings) scan.ScanObserver {
		receivedSettings = append(receivedSettings, settings)
		return recorder
	}

	command, buildError := fixture.builder.Build()
	require.NoError(testInstance, buildError)
	command.SetArgs([]string{"--clone-root", testInstance.TempDir(), "--progress"})
	require.NoError(testInstance, command.Execute())

	require.Len(testInstance, receivedSettings, 1)
	require.True(testInstance, receivedSettings[0].VerdictsEnabled)
	require.True(testInstance, receivedSettings[0].ProgressEnabled)
	require.NotNil(testInstance, receivedSettings[0].Output)
	require.Equal(testInstance, 2, recorder.selectedTotal)
	require.Len(testInstance, recorder.completed, 2)
}

func TestScanCommandExpandsHomeInCloneRoot(testInstance *testing.T) {
	configuration := scan.DefaultCommandConfiguration()
	configuration.CloneRoot = "~/clones"
	fixture := newCommandFixture(configuration, map[string]string{githubauth.EnvGitHubCLIToken: testCommandTokenConstant})

	command, buildError := fixture.builder.Build()
	require.NoError(testInstance, buildError)
	command.SetArgs([]string{"--repository", "acme/one"})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, []string{filepath.Join("/home/auditor", "clones", "one")}, fixture.manager.clonedPaths)
}
