package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	secondaryRateLimitSleepCeilingConstant = time.Hour
	repositoriesPageSizeConstant           = 100
	cloneURLSuffixConstant                 = ".git"
	urlPathSeparatorConstant               = "/"
	organizationVariableNameConstant       = "organization"
	cursorVariableNameConstant             = "cursor"

	tokenRequiredMessageConstant         = "github token required"
	httpClientRequiredMessageConstant    = "http client required"
	organizationRequiredMessageConstant  = "organization name required"
	rateLimitWaiterErrorTemplateConstant = "create rate limit waiter: %w"
	restBaseURLErrorTemplateConstant     = "parse REST base URL %q: %w"
	operationErrorTemplateConstant       = "%s %s: %v"
	listRepositoriesOperationConstant    = OperationName("list organization repositories")
	listContributorsOperationConstant    = OperationName("list contributors")
	getUserOperationConstant             = OperationName("get user")
	repositoriesPageFetchedMessage       = "Fetched organization repositories page"
	rateLimitSleepMessageConstant        = "Sleeping on GitHub secondary rate limit"
	logFieldOrganizationConstant         = "organization"
	logFieldRepositoriesFetchedConstant  = "repositories_fetched"
	logFieldSleepDurationConstant        = "sleep_duration"
	logFieldRateLimitedURLConstant       = "url"
)

// OperationName identifies a GitHub API operation in errors.
type OperationName string

var (
	// ErrTokenRequired indicates NewClient received an empty token.
	ErrTokenRequired = errors.New(tokenRequiredMessageConstant)
	// ErrHTTPClientRequired indicates NewClientWithEndpoints received a nil HTTP client.
	ErrHTTPClientRequired = errors.New(httpClientRequiredMessageConstant)
	// ErrOrganizationRequired indicates an empty organization login.
	ErrOrganizationRequired = errors.New(organizationRequiredMessageConstant)
)

// OperationError wraps a failed GitHub API call.
type OperationError struct {
	Operation OperationName
	Subject   string
	Cause     error
}

// Error describes the failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Subject, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// Repository describes an organization repository as reported by GitHub.
type Repository struct {
	Owner         string
	Name          string
	FullName      string
	CloneURL      string
	DefaultBranch string
	Archived      bool
	Languages     []string
}

// HasLanguage reports whether GitHub detected language in the repository.
func (repository Repository) HasLanguage(language string) bool {
	for _, detectedLanguage := range repository.Languages {
		if detectedLanguage == language {
			return true
		}
	}
	return false
}

// Contributor is a repository contributor ordered by contribution count.
type Contributor struct {
	Login         string
	Contributions int
}

// UserProfile carries the public profile fields used as contact details.
type UserProfile struct {
	Login string
	Name  string
	Email string
}

type organizationRepositoriesQuery struct {
	Organization struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Name          string
				NameWithOwner string
				URL           string
				IsArchived    bool
				Owner         struct {
					Login string
				}
				DefaultBranchRef struct {
					Name string
				}
				Languages struct {
					Nodes []struct {
						Name string
					}
				} `graphql:"languages(first: 100)"`
			}
		} `graphql:"repositories(first: 100, after: $cursor, orderBy: {field: NAME, direction: ASC})"`
	} `graphql:"organization(login: $organization)"`
}

// Client talks to the GitHub REST and GraphQL APIs.
type Client struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *zap.Logger
}

// NewClient builds a client authenticated with token. Requests pass through a
// secondary rate limit waiter so long scans pause instead of failing.
func NewClient(token string, logger *zap.Logger) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return nil, ErrTokenRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rateLimitWaiter, waiterError := github_ratelimit.NewRateLimitWaiter(
		nil,
		github_ratelimit.WithSingleSleepLimit(secondaryRateLimitSleepCeilingConstant, nil),
		github_ratelimit.WithLimitDetectedCallback(func(callbackContext *github_ratelimit.CallbackContext) {
			fields := []zap.Field{}
			if callbackContext.SleepUntil != nil {
				fields = append(fields, zap.Duration(logFieldSleepDurationConstant, time.Until(*callbackContext.SleepUntil)))
			}
			if callbackContext.Request != nil {
				fields = append(fields, zap.String(logFieldRateLimitedURLConstant, callbackContext.Request.URL.Path))
			}
			logger.Warn(rateLimitSleepMessageConstant, fields...)
		}),
	)
	if waiterError != nil {
		return nil, fmt.Errorf(rateLimitWaiterErrorTemplateConstant, waiterError)
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: tokenSource,
		},
	}

	return &Client{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// NewClientWithEndpoints builds a client against explicit REST and GraphQL
// endpoints, as used by GitHub Enterprise installations and tests.
func NewClientWithEndpoints(httpClient *http.Client, restBaseURL string, graphqlURL string, logger *zap.Logger) (*Client, error) {
	if httpClient == nil {
		return nil, ErrHTTPClientRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	normalizedBaseURL := restBaseURL
	if !strings.HasSuffix(normalizedBaseURL, urlPathSeparatorConstant) {
		normalizedBaseURL += urlPathSeparatorConstant
	}
	parsedBaseURL, parseError := url.Parse(normalizedBaseURL)
	if parseError != nil {
		return nil, fmt.Errorf(restBaseURLErrorTemplateConstant, restBaseURL, parseError)
	}

	restClient := github.NewClient(httpClient)
	restClient.BaseURL = parsedBaseURL

	return &Client{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(graphqlURL, httpClient),
		logger:        logger,
	}, nil
}

// ListOrganizationRepositories returns every repository of organization with
// its detected languages and archived flag, in repository name order.
func (client *Client) ListOrganizationRepositories(executionContext context.Context, organization string) ([]Repository, error) {
	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) == 0 {
		return nil, ErrOrganizationRequired
	}

	variables := map[string]interface{}{
		organizationVariableNameConstant: githubv4.String(trimmedOrganization),
		cursorVariableNameConstant:       (*githubv4.String)(nil),
	}

	repositories := make([]Repository, 0, repositoriesPageSizeConstant)
	for {
		var query organizationRepositoriesQuery
		if queryError := client.graphqlClient.Query(executionContext, &query, variables); queryError != nil {
			return nil, OperationError{Operation: listRepositoriesOperationConstant, Subject: trimmedOrganization, Cause: queryError}
		}

		for _, node := range query.Organization.Repositories.Nodes {
			languages := make([]string, 0, len(node.Languages.Nodes))
			for _, language := range node.Languages.Nodes {
				languages = append(languages, language.Name)
			}
			repositories = append(repositories, Repository{
				Owner:         node.Owner.Login,
				Name:          node.Name,
				FullName:      node.NameWithOwner,
				CloneURL:      strings.TrimSuffix(node.URL, urlPathSeparatorConstant) + cloneURLSuffixConstant,
				DefaultBranch: node.DefaultBranchRef.Name,
				Archived:      node.IsArchived,
				Languages:     languages,
			})
		}

		client.logger.Debug(
			repositoriesPageFetchedMessage,
			zap.String(logFieldOrganizationConstant, trimmedOrganization),
			zap.Int(logFieldRepositoriesFetchedConstant, len(repositories)),
		)

		if !query.Organization.Repositories.PageInfo.HasNextPage {
			break
		}
		variables[cursorVariableNameConstant] = githubv4.NewString(query.Organization.Repositories.PageInfo.EndCursor)
	}

	return repositories, nil
}

// ListTopContributors returns up to limit contributors of owner/name, most active first.
func (client *Client) ListTopContributors(executionContext context.Context, owner string, name string, limit int) ([]Contributor, error) {
	subject := owner + urlPathSeparatorConstant + name
	if limit <= 0 {
		return nil, nil
	}

	options := &github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: limit}}
	apiContributors, _, listError := client.restClient.Repositories.ListContributors(executionContext, owner, name, options)
	if listError != nil {
		return nil, OperationError{Operation: listContributorsOperationConstant, Subject: subject, Cause: listError}
	}

	contributors := make([]Contributor, 0, limit)
	for _, apiContributor := range apiContributors {
		if len(contributors) == limit {
			break
		}
		contributors = append(contributors, Contributor{
			Login:         apiContributor.GetLogin(),
			Contributions: apiContributor.GetContributions(),
		})
	}
	return contributors, nil
}

// GetUserProfile reads the public name and email of login.
func (client *Client) GetUserProfile(executionContext context.Context, login string) (UserProfile, error) {
	user, _, getError := client.restClient.Users.Get(executionContext, login)
	if getError != nil {
		return UserProfile{}, OperationError{Operation: getUserOperationConstant, Subject: login, Cause: getError}
	}
	return UserProfile{
		Login: user.GetLogin(),
		Name:  strings.TrimSpace(user.GetName()),
		Email: strings.TrimSpace(user.GetEmail()),
	}, nil
}
