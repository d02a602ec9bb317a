// Package githubapi wraps the GitHub REST and GraphQL clients used to list
// organization repositories and resolve contributor contacts.
package githubapi
