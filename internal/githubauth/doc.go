// Package githubauth locates the GitHub access token used for API calls and authenticated clones.
package githubauth
