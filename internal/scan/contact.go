package scan

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/notebook-audit/internal/githubapi"
	"github.com/temirov/notebook-audit/internal/repos/shared"
)

const (
	contributorListingFailedMessage  = "Could not list contributors, falling back to the last committer"
	contributorProfileFailedMessage  = "Could not read contributor profile"
	contactResolverDependencyMessage = "contact resolver requires a GitHub client and a repository manager"
	contactStageSwitchTemplate       = "switch to default branch %s: %w"
	contactStageHeadTemplate         = "read head commit: %w"
	contactStageEmailTemplate        = "read author email of %s: %w"
	logFieldContributorConstant      = "contributor"
)

// ErrContactResolverDependencies indicates a ContactResolver was built without its collaborators.
var ErrContactResolverDependencies = errors.New(contactResolverDependencyMessage)

// ContactResolver picks the person to contact about a repository.
type ContactResolver struct {
	githubClient shared.GitHubClient
	manager      shared.GitRepositoryManager
	logger       *zap.Logger
}

// NewContactResolver constructs a ContactResolver.
func NewContactResolver(githubClient shared.GitHubClient, manager shared.GitRepositoryManager, logger *zap.Logger) (*ContactResolver, error) {
	if githubClient == nil || manager == nil {
		return nil, ErrContactResolverDependencies
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactResolver{githubClient: githubClient, manager: manager, logger: logger}, nil
}

// ResolveContact returns the first of the top three contributors whose
// profile carries both a name and an email, ranked by position. Otherwise the
// author of the last commit on the default branch is returned with the
// fallback rank.
func (resolver *ContactResolver) ResolveContact(executionContext context.Context, repository githubapi.Repository, repositoryPath string) (Contact, error) {
	contributors, listError := resolver.githubClient.ListTopContributors(executionContext, repository.Owner, repository.Name, topContributorLimitConstant)
	if listError != nil {
		resolver.logger.Warn(contributorListingFailedMessage, zap.String(logFieldRepositoryConstant, repository.FullName), zap.Error(listError))
	}

	for contributorIndex, contributor := range contributors {
		if contributorIndex >= topContributorLimitConstant {
			break
		}

		profile, profileError := resolver.githubClient.GetUserProfile(executionContext, contributor.Login)
		if profileError != nil {
			resolver.logger.Warn(
				contributorProfileFailedMessage,
				zap.String(logFieldRepositoryConstant, repository.FullName),
				zap.String(logFieldContributorConstant, contributor.Login),
				zap.Error(profileError),
			)
			continue
		}

		if len(profile.Name) > 0 && len(profile.Email) > 0 {
			return Contact{Name: profile.Name, Email: profile.Email, Rank: ContactRank(contributorIndex + 1)}, nil
		}
	}

	return resolver.resolveLastCommitter(executionContext, repository, repositoryPath)
}

func (resolver *ContactResolver) resolveLastCommitter(executionContext context.Context, repository githubapi.Repository, repositoryPath string) (Contact, error) {
	if len(repository.DefaultBranch) > 0 {
		if switchError := resolver.manager.SwitchBranch(executionContext, repositoryPath, repository.DefaultBranch); switchError != nil {
			return Contact{}, fmt.Errorf(contactStageSwitchTemplate, repository.DefaultBranch, switchError)
		}
	}

	headCommit, headError := resolver.manager.HeadCommit(repositoryPath)
	if headError != nil {
		return Contact{}, fmt.Errorf(contactStageHeadTemplate, headError)
	}

	authorEmail, emailError := resolver.manager.CommitAuthorEmail(executionContext, repositoryPath, headCommit.Hash)
	if emailError != nil {
		return Contact{}, fmt.Errorf(contactStageEmailTemplate, headCommit.Hash, emailError)
	}

	return Contact{Name: headCommit.AuthorName, Email: authorEmail, Rank: ContactRankFallbackCommitter}, nil
}
