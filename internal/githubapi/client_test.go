package githubapi_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/notebook-audit/internal/githubapi"
)

const (
	testOrganizationConstant    = "statisticsnorway"
	testGraphQLPathConstant     = "/graphql"
	testRepositoryOwnerConstant = "statisticsnorway"
	testRepositoryNameConstant  = "notebooks"

	firstRepositoriesPageConstant = `{"data":{"organization":{"repositories":{
		"pageInfo":{"hasNextPage":true,"endCursor":"Y3Vyc29yOjE="},
		"nodes":[
			{"name":"analysis","nameWithOwner":"statisticsnorway/analysis","url":"https://github.com/statisticsnorway/analysis","isArchived":false,
			 "owner":{"login":"statisticsnorway"},"defaultBranchRef":{"name":"main"},
			 "languages":{"nodes":[{"name":"Python"},{"name":"Jupyter Notebook"}]}},
			{"name":"legacy","nameWithOwner":"statisticsnorway/legacy","url":"https://github.com/statisticsnorway/legacy","isArchived":true,
			 "owner":{"login":"statisticsnorway"},"defaultBranchRef":{"name":"master"},
			 "languages":{"nodes":[{"name":"Jupyter Notebook"}]}}
		]}}}}`

	secondRepositoriesPageConstant = `{"data":{"organization":{"repositories":{
		"pageInfo":{"hasNextPage":false,"endCursor":"Y3Vyc29yOjI="},
		"nodes":[
			{"name":"empty","nameWithOwner":"statisticsnorway/empty","url":"https://github.com/statisticsnorway/empty","isArchived":false,
			 "owner":{"login":"statisticsnorway"},"defaultBranchRef":null,
			 "languages":{"nodes":[]}}
		]}}}}`
)

func newTestClient(testInstance *testing.T, handler http.Handler) *githubapi.Client {
	testInstance.Helper()
	server := httptest.NewServer(handler)
	testInstance.Cleanup(server.Close)

	client, creationError := githubapi.NewClientWithEndpoints(server.Client(), server.URL, server.URL+testGraphQLPathConstant, zap.NewNop())
	require.NoError(testInstance, creationError)
	return client
}

func TestListOrganizationRepositoriesFollowsPages(testInstance *testing.T) {
	var requestBodies []string
	handler := http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, testGraphQLPathConstant, request.URL.Path)
		body, readError := io.ReadAll(request.Body)
		require.NoError(testInstance, readError)
		requestBodies = append(requestBodies, string(body))

		responseWriter.Header().Set("Content-Type", "application/json")
		if len(requestBodies) == 1 {
			fmt.Fprint(responseWriter, firstRepositoriesPageConstant)
			return
		}
		fmt.Fprint(responseWriter, secondRepositoriesPageConstant)
	})

	client := newTestClient(testInstance, handler)
	repositories, listError := client.ListOrganizationRepositories(context.Background(), testOrganizationConstant)
	require.NoError(testInstance, listError)

	require.Len(testInstance, requestBodies, 2)
	require.Contains(testInstance, requestBodies[0], `"organization":"statisticsnorway"`)
	require.Contains(testInstance, requestBodies[0], `"cursor":null`)
	require.Contains(testInstance, requestBodies[1], `"cursor":"Y3Vyc29yOjE="`)

	require.Equal(testInstance, []githubapi.Repository{
		{
			Owner:         "statisticsnorway",
			Name:          "analysis",
			FullName:      "statisticsnorway/analysis",
			CloneURL:      "https://github.com/statisticsnorway/analysis.git",
			DefaultBranch: "main",
			Languages:     []string{"Python", "Jupyter Notebook"},
		},
		{
			Owner:         "statisticsnorway",
			Name:          "legacy",
			FullName:      "statisticsnorway/legacy",
			CloneURL:      "https://github.com/statisticsnorway/legacy.git",
			DefaultBranch: "master",
			Archived:      true,
			Languages:     []string{"Jupyter Notebook"},
		},
		{
			Owner:     "statisticsnorway",
			Name:      "empty",
			FullName:  "statisticsnorway/empty",
			CloneURL:  "https://github.com/statisticsnorway/empty.git",
			Languages: []string{},
		},
	}, repositories)
}

func TestListOrganizationRepositoriesErrors(testInstance *testing.T) {
	handler := http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Header().Set("Content-Type", "application/json")
		fmt.Fprint(responseWriter, `{"errors":[{"message":"Could not resolve to an Organization"}]}`)
	})

	client := newTestClient(testInstance, handler)
	_, listError := client.ListOrganizationRepositories(context.Background(), testOrganizationConstant)
	require.Error(testInstance, listError)

	var operationError githubapi.OperationError
	require.True(testInstance, errors.As(listError, &operationError))
	require.Equal(testInstance, testOrganizationConstant, operationError.Subject)

	_, emptyOrganizationError := client.ListOrganizationRepositories(context.Background(), " ")
	require.ErrorIs(testInstance, emptyOrganizationError, githubapi.ErrOrganizationRequired)
}

func TestListTopContributors(testInstance *testing.T) {
	handler := http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, "/repos/statisticsnorway/notebooks/contributors", request.URL.Path)
		require.Equal(testInstance, "3", request.URL.Query().Get("per_page"))
		responseWriter.Header().Set("Content-Type", "application/json")
		fmt.Fprint(responseWriter, `[
			{"login":"alice","contributions":40},
			{"login":"bob","contributions":12},
			{"login":"carol","contributions":5},
			{"login":"dave","contributions":1}
		]`)
	})

	client := newTestClient(testInstance, handler)
	contributors, listError := client.ListTopContributors(context.Background(), testRepositoryOwnerConstant, testRepositoryNameConstant, 3)
	require.NoError(testInstance, listError)
	require.Equal(testInstance, []githubapi.Contributor{
		{Login: "alice", Contributions: 40},
		{Login: "bob", Contributions: 12},
		{Login: "carol", Contributions: 5},
	}, contributors)
}

func TestListTopContributorsFailure(testInstance *testing.T) {
	handler := http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusNotFound)
		fmt.Fprint(responseWriter, `{"message":"Not Found"}`)
	})

	client := newTestClient(testInstance, handler)
	_, listError := client.ListTopContributors(context.Background(), testRepositoryOwnerConstant, testRepositoryNameConstant, 3)
	require.Error(testInstance, listError)
	require.IsType(testInstance, githubapi.OperationError{}, listError)
	require.True(testInstance, strings.Contains(listError.Error(), "statisticsnorway/notebooks"))
}

func TestGetUserProfile(testInstance *testing.T) {
	handler := http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, "/users/alice", request.URL.Path)
		responseWriter.Header().Set("Content-Type", "application/json")
		fmt.Fprint(responseWriter, `{"login":"alice","name":" Alice Analyst ","email":"alice@example.com"}`)
	})

	client := newTestClient(testInstance, handler)
	profile, getError := client.GetUserProfile(context.Background(), "alice")
	require.NoError(testInstance, getError)
	require.Equal(testInstance, githubapi.UserProfile{Login: "alice", Name: "Alice Analyst", Email: "alice@example.com"}, profile)
}

func TestRepositoryHasLanguage(testInstance *testing.T) {
	repository := githubapi.Repository{Languages: []string{"Python", "Jupyter Notebook"}}
	require.True(testInstance, repository.HasLanguage("Jupyter Notebook"))
	require.False(testInstance, repository.HasLanguage("jupyter notebook"))
	require.False(testInstance, githubapi.Repository{}.HasLanguage("Jupyter Notebook"))
}

func TestNewClientValidation(testInstance *testing.T) {
	_, tokenError := githubapi.NewClient("  ", zap.NewNop())
	require.ErrorIs(testInstance, tokenError, githubapi.ErrTokenRequired)

	client, creationError := githubapi.NewClient("ghp_example", nil)
	require.NoError(testInstance, creationError)
	require.NotNil(testInstance, client)

	_, httpClientError := githubapi.NewClientWithEndpoints(nil, "http://localhost", "http://localhost/graphql", nil)
	require.ErrorIs(testInstance, httpClientError, githubapi.ErrHTTPClientRequired)
}
