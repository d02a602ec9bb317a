// Package gitrepo contains helpers for cloning and interrogating Git repositories.
//
// RepositoryManager drives the git CLI through execshell for clone, branch
// switching, hard resets, remote branch listing and diff inspection, and reads
// commit objects directly with go-git. CredentialsURL builds authenticated
// clone URLs.
package gitrepo
