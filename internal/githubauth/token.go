package githubauth

import (
	"errors"
	"os"
	"strings"
)

// Environment variable names consulted for a GitHub token, in order of preference.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

const tokenNotFoundMessageConstant = "github token required: pass TOKEN or set GH_TOKEN, GITHUB_TOKEN or GITHUB_API_TOKEN"

// ErrTokenNotFound indicates neither an explicit token nor a token environment variable was provided.
var ErrTokenNotFound = errors.New(tokenNotFoundMessageConstant)

// EnvironmentLookup reports the value of an environment variable.
type EnvironmentLookup func(key string) (string, bool)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// ResolveToken returns explicitToken when it is non-blank, otherwise the first non-blank
// token environment variable. A nil lookup reads the process environment.
func ResolveToken(explicitToken string, lookup EnvironmentLookup) (string, error) {
	if trimmedToken := strings.TrimSpace(explicitToken); len(trimmedToken) > 0 {
		return trimmedToken, nil
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range tokenPreference {
		value, exists := lookup(key)
		if !exists {
			continue
		}
		if trimmedValue := strings.TrimSpace(value); len(trimmedValue) > 0 {
			return trimmedValue, nil
		}
	}
	return "", ErrTokenNotFound
}
