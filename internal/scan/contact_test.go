package scan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/notebook-audit/internal/githubapi"
	"github.com/temirov/notebook-audit/internal/gitrepo"
	"github.com/temirov/notebook-audit/internal/scan"
)

const (
	testFallbackAuthorNameConstant  = "Last Committer"
	testFallbackAuthorEmailConstant = "last@example.com"
	testFallbackCommitHashConstant  = "abc123"
)

var testContactRepository = githubapi.Repository{
	Owner:         "acme",
	Name:          "models",
	FullName:      testRepositoryFullNameConstant,
	DefaultBranch: "main",
}

func contributorsFor(logins ...string) []githubapi.Contributor {
	contributors := make([]githubapi.Contributor, 0, len(logins))
	for index, login := range logins {
		contributors = append(contributors, githubapi.Contributor{Login: login, Contributions: 100 - index})
	}
	return contributors
}

func fallbackManager() *stubRepositoryManager {
	return &stubRepositoryManager{
		headCommit:  gitrepo.CommitSummary{Hash: testFallbackCommitHashConstant, AuthorName: testFallbackAuthorNameConstant},
		authorEmail: testFallbackAuthorEmailConstant,
	}
}

func TestContactResolverSelectsContact(testInstance *testing.T) {
	fallbackContact := scan.Contact{Name: testFallbackAuthorNameConstant, Email: testFallbackAuthorEmailConstant, Rank: scan.ContactRankFallbackCommitter}

	testCases := []struct {
		name            string
		contributors    []githubapi.Contributor
		profiles        map[string]githubapi.UserProfile
		profileErrors   map[string]error
		expectedContact scan.Contact
	}{
		{
			name:         "first_contributor_complete",
			contributors: contributorsFor("ada", "bob", "cy"),
			profiles: map[string]githubapi.UserProfile{
				"ada": {Login: "ada", Name: "Ada", Email: "ada@example.com"},
				"bob": {Login: "bob", Name: "Bob", Email: "bob@example.com"},
			},
			expectedContact: scan.Contact{Name: "Ada", Email: "ada@example.com", Rank: 1},
		},
		{
			name:         "second_contributor_after_missing_email",
			contributors: contributorsFor("ada", "bob", "cy"),
			profiles: map[string]githubapi.UserProfile{
				"ada": {Login: "ada", Name: "Ada"},
				"bob": {Login: "bob", Name: "Bob", Email: "bob@example.com"},
			},
			expectedContact: scan.Contact{Name: "Bob", Email: "bob@example.com", Rank: 2},
		},
		{
			name:         "third_contributor_after_profile_error",
			contributors: contributorsFor("ada", "bob", "cy"),
			profiles: map[string]githubapi.UserProfile{
				"bob": {Login: "bob", Email: "bob@example.com"},
				"cy":  {Login: "cy", Name: "Cy", Email: "cy@example.com"},
			},
			profileErrors:   map[string]error{"ada": errors.New("not found")},
			expectedContact: scan.Contact{Name: "Cy", Email: "cy@example.com", Rank: 3},
		},
		{
			name:         "fourth_contributor_ignored",
			contributors: contributorsFor("ada", "bob", "cy", "dee"),
			profiles: map[string]githubapi.UserProfile{
				"dee": {Login: "dee", Name: "Dee", Email: "dee@example.com"},
			},
			expectedContact: fallbackContact,
		},
		{
			name:            "no_contributors",
			expectedContact: fallbackContact,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			githubClient := &stubGitHubClient{contributors: testCase.contributors, profiles: testCase.profiles, profileErrors: testCase.profileErrors}
			manager := fallbackManager()

			resolver, creationError := scan.NewContactResolver(githubClient, manager, zap.NewNop())
			require.NoError(testInstance, creationError)

			contact, resolveError := resolver.ResolveContact(context.Background(), testContactRepository, testClonePathConstant)
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedContact, contact)
			require.Equal(testInstance, []int{3}, githubClient.requestedLimits)
			require.LessOrEqual(testInstance, len(githubClient.requestedProfiles), 3)
		})
	}
}

func TestContactResolverFallbackUsesDefaultBranch(testInstance *testing.T) {
	manager := fallbackManager()
	resolver, creationError := scan.NewContactResolver(&stubGitHubClient{}, manager, zap.NewNop())
	require.NoError(testInstance, creationError)

	_, resolveError := resolver.ResolveContact(context.Background(), testContactRepository, testClonePathConstant)
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, []string{"main"}, manager.switchedBranches)
	require.Equal(testInstance, []string{testClonePathConstant}, manager.inspectedHeadPaths)
}

func TestContactResolverListingFailureFallsBack(testInstance *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	githubClient := &stubGitHubClient{contributorsError: errors.New("rate limited")}

	resolver, creationError := scan.NewContactResolver(githubClient, fallbackManager(), zap.New(observedCore))
	require.NoError(testInstance, creationError)

	contact, resolveError := resolver.ResolveContact(context.Background(), testContactRepository, testClonePathConstant)
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, scan.ContactRankFallbackCommitter, contact.Rank)
	require.Equal(testInstance, 1, observedLogs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestContactResolverFallbackFailures(testInstance *testing.T) {
	headFailure := errors.New("no head")
	emailFailure := errors.New("show failed")
	switchFailure := errors.New("no main")

	testCases := []struct {
		name          string
		manager       *stubRepositoryManager
		expectedError error
	}{
		{name: "switch_failure", manager: &stubRepositoryManager{switchErrors: map[string]error{"main": switchFailure}}, expectedError: switchFailure},
		{name: "head_failure", manager: &stubRepositoryManager{headError: headFailure}, expectedError: headFailure},
		{name: "email_failure", manager: &stubRepositoryManager{authorEmailError: emailFailure}, expectedError: emailFailure},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			resolver, creationError := scan.NewContactResolver(&stubGitHubClient{}, testCase.manager, zap.NewNop())
			require.NoError(testInstance, creationError)

			_, resolveError := resolver.ResolveContact(context.Background(), testContactRepository, testClonePathConstant)
			require.ErrorIs(testInstance, resolveError, testCase.expectedError)
		})
	}
}
