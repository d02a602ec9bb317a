package scan

import (
	"fmt"
	"sort"
)

// RepositoryState classifies a repository after every branch was inspected.
type RepositoryState string

// Repository states.
const (
	RepositoryStateClean RepositoryState = "CLEAN"
	RepositoryStateDirty RepositoryState = "DIRTY"
)

// ContactRank records how a repository contact was chosen: 1..3 is the
// contributor position, 4 the last committer on the default branch and 0 an
// unresolved contact.
type ContactRank int

// Contact ranks outside the contributor positions.
const (
	ContactRankUnresolved        ContactRank = 0
	ContactRankFallbackCommitter ContactRank = 4
)

const (
	topContributorLimitConstant = 3
	repositoryScanErrorTemplate = "scan %s: %s: %v"
)

// Contact identifies the person asked to remediate a dirty repository.
type Contact struct {
	Name  string
	Email string
	Rank  ContactRank
}

// BranchResult is the outcome of inspecting one branch.
type BranchResult struct {
	BranchName   string
	ChangedFiles []string
	ErrorFiles   int
}

// Dirty reports whether any notebook on the branch still carried outputs.
func (result BranchResult) Dirty() bool {
	return len(result.ChangedFiles) > 0
}

// RepositoryStatistics aggregates the findings of one repository scan.
type RepositoryStatistics struct {
	RepositoryName   string              `json:"repository" yaml:"repository"`
	State            RepositoryState     `json:"state" yaml:"state"`
	DirtyBranches    int                 `json:"dirty_branches" yaml:"dirty_branches"`
	DirtyFiles       int                 `json:"dirty_files" yaml:"dirty_files"`
	ErrorFiles       int                 `json:"error_files" yaml:"error_files"`
	ContactName      string              `json:"contact_name" yaml:"contact_name"`
	ContactEmail     string              `json:"contact_email" yaml:"contact_email"`
	ContactRank      ContactRank         `json:"contact_rank" yaml:"contact_rank"`
	DirtyBranchFiles map[string][]string `json:"dirty_branch_files,omitempty" yaml:"dirty_branch_files,omitempty"`
}

// NewRepositoryStatistics returns a clean record for repositoryName.
func NewRepositoryStatistics(repositoryName string) RepositoryStatistics {
	return RepositoryStatistics{
		RepositoryName: repositoryName,
		State:          RepositoryStateClean,
	}
}

// Accumulate folds a branch result into the record.
func (statistics *RepositoryStatistics) Accumulate(result BranchResult) {
	statistics.ErrorFiles += result.ErrorFiles
	if !result.Dirty() {
		return
	}

	statistics.State = RepositoryStateDirty
	statistics.DirtyBranches++
	statistics.DirtyFiles += len(result.ChangedFiles)

	if statistics.DirtyBranchFiles == nil {
		statistics.DirtyBranchFiles = make(map[string][]string)
	}
	statistics.DirtyBranchFiles[result.BranchName] = append([]string(nil), result.ChangedFiles...)
}

// ApplyContact records the resolved remediation contact.
func (statistics *RepositoryStatistics) ApplyContact(contact Contact) {
	statistics.ContactName = contact.Name
	statistics.ContactEmail = contact.Email
	statistics.ContactRank = contact.Rank
}

// DirtyBranchNames lists the dirty branches in name order.
func (statistics RepositoryStatistics) DirtyBranchNames() []string {
	branchNames := make([]string, 0, len(statistics.DirtyBranchFiles))
	for branchName := range statistics.DirtyBranchFiles {
		branchNames = append(branchNames, branchName)
	}
	sort.Strings(branchNames)
	return branchNames
}

// RepositoryScanError reports a repository that could not be scanned.
type RepositoryScanError struct {
	Repository string
	Stage      string
	Cause      error
}

// Error describes the failure.
func (scanError RepositoryScanError) Error() string {
	return fmt.Sprintf(repositoryScanErrorTemplate, scanError.Repository, scanError.Stage, scanError.Cause)
}

// Unwrap exposes the underlying cause.
func (scanError RepositoryScanError) Unwrap() error {
	return scanError.Cause
}
