package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/temirov/notebook-audit/internal/githubapi"
	"github.com/temirov/notebook-audit/internal/repos/shared"
)

const (
	scanningOrganizationMessageTemplate = "Scanning organization %s for repos containing %s..."
	repositorySelectedMessageTemplate   = "%s contains notebooks"
	repositoriesSelectedMessageTemplate = "There are %d repos with %s"
	repositorySeparatorMessageConstant  = "--------------------------------------------"
	checkingRepositoryMessageTemplate   = "Checking repo [%d/%d]: %s"
	repositoryFailedMessageConstant     = "Repository scan failed"
	statisticsSeparatorMessageConstant  = "------------------------------------"
	statisticsHeaderMessageConstant     = "Statistics:"
	statisticsRepositoriesTemplate      = "Number of %s repos : %d"
	statisticsDirtyRepositoriesTemplate = "Number of dirty repos   : %d"
	statisticsDirtyBranchesTemplate     = "Number of dirty branches: %d"
	statisticsDirtyFilesTemplate        = "Number of dirty files   : %d"
	statisticsErrorFilesTemplate        = "Number of error files   : %d"
	statisticsFailedTemplate            = "Number of failed repos  : %d"
	statisticsDirtyFilesSpreadTemplate  = "Dirty files per dirty repo: median %.1f, max %.0f"
	listRepositoriesErrorTemplate       = "list repositories of %s: %w"
	summaryStatisticsErrorTemplate      = "summarize dirty files: %w"
	organizationScannerDependencyMsg    = "organization scanner requires a GitHub client and a repository inspector"
	logFieldFailedRepositoryConstant    = "failed_repository"
)

// ErrOrganizationScannerDependencies indicates an OrganizationScanner was built without its collaborators.
var ErrOrganizationScannerDependencies = errors.New(organizationScannerDependencyMsg)

// RepositoryProcessor scans a single repository.
type RepositoryProcessor interface {
	InspectRepository(executionContext context.Context, repository githubapi.Repository) (RepositoryStatistics, error)
}

// ScanObserver receives progress notifications from an organization scan.
type ScanObserver interface {
	RepositoriesSelected(total int)
	RepositoryStarted(index int, total int, repositoryName string)
	RepositoryCompleted(statistics RepositoryStatistics)
	RepositoryFailed(repositoryName string, failure error)
	ScanFinished(summary OrganizationSummary)
}

// OrganizationScanOptions selects the repositories of a scan.
type OrganizationScanOptions struct {
	Organization string
	Language     string
	Repositories []shared.OwnerRepository
}

// OrganizationSummary aggregates the statistics of every scanned repository.
type OrganizationSummary struct {
	Organization        string                 `json:"organization" yaml:"organization"`
	Language            string                 `json:"language" yaml:"language"`
	RepositoriesScanned int                    `json:"repositories_scanned" yaml:"repositories_scanned"`
	DirtyRepositories   int                    `json:"dirty_repositories" yaml:"dirty_repositories"`
	DirtyBranches       int                    `json:"dirty_branches" yaml:"dirty_branches"`
	DirtyFiles          int                    `json:"dirty_files" yaml:"dirty_files"`
	ErrorFiles          int                    `json:"error_files" yaml:"error_files"`
	FailedRepositories  []string               `json:"failed_repositories" yaml:"failed_repositories"`
	MedianDirtyFiles    float64                `json:"median_dirty_files" yaml:"median_dirty_files"`
	MaxDirtyFiles       float64                `json:"max_dirty_files" yaml:"max_dirty_files"`
	Repositories        []RepositoryStatistics `json:"repositories" yaml:"repositories"`
}

// Summarize totals the repository records of a scan.
func Summarize(organization string, language string, records []RepositoryStatistics, failedRepositories []string) (OrganizationSummary, error) {
	summary := OrganizationSummary{
		Organization:        organization,
		Language:            language,
		RepositoriesScanned: len(records),
		FailedRepositories:  append([]string{}, failedRepositories...),
		Repositories:        append([]RepositoryStatistics{}, records...),
	}

	var dirtyFileCounts stats.Float64Data
	for _, record := range records {
		summary.DirtyBranches += record.DirtyBranches
		summary.DirtyFiles += record.DirtyFiles
		summary.ErrorFiles += record.ErrorFiles
		if record.State == RepositoryStateDirty {
			summary.DirtyRepositories++
			dirtyFileCounts = append(dirtyFileCounts, float64(record.DirtyFiles))
		}
	}

	if dirtyFileCounts.Len() == 0 {
		return summary, nil
	}

	median, medianError := dirtyFileCounts.Median()
	if medianError != nil {
		return OrganizationSummary{}, fmt.Errorf(summaryStatisticsErrorTemplate, medianError)
	}
	maximum, maximumError := dirtyFileCounts.Max()
	if maximumError != nil {
		return OrganizationSummary{}, fmt.Errorf(summaryStatisticsErrorTemplate, maximumError)
	}
	summary.MedianDirtyFiles = median
	summary.MaxDirtyFiles = maximum
	return summary, nil
}

// SelectRepositories keeps the unarchived repositories that contain language,
// optionally restricted to an explicit repository list. Listing order is preserved.
func SelectRepositories(repositories []githubapi.Repository, language string, allowed []shared.OwnerRepository) []githubapi.Repository {
	selected := make([]githubapi.Repository, 0, len(repositories))
	for _, repository := range repositories {
		if repository.Archived || !repository.HasLanguage(language) {
			continue
		}
		if len(allowed) > 0 && !matchesAny(allowed, repository.FullName) {
			continue
		}
		selected = append(selected, repository)
	}
	return selected
}

func matchesAny(allowed []shared.OwnerRepository, fullName string) bool {
	for _, ownerRepository := range allowed {
		if ownerRepository.Matches(fullName) {
			return true
		}
	}
	return false
}

// OrganizationScanner drives repository inspection across an organization.
type OrganizationScanner struct {
	githubClient shared.GitHubClient
	processor    RepositoryProcessor
	observer     ScanObserver
	logger       *zap.Logger
}

// NewOrganizationScanner constructs an OrganizationScanner. A nil observer disables progress notifications.
func NewOrganizationScanner(githubClient shared.GitHubClient, processor RepositoryProcessor, observer ScanObserver, logger *zap.Logger) (*OrganizationScanner, error) {
	if githubClient == nil || processor == nil {
		return nil, ErrOrganizationScannerDependencies
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizationScanner{githubClient: githubClient, processor: processor, observer: observer, logger: logger}, nil
}

// Scan lists the organization, inspects every selected repository in listing
// order and returns the totals. A repository that fails is logged, recorded in
// the summary and skipped. Listing failures and cancellation abort the scan.
func (scanner *OrganizationScanner) Scan(executionContext context.Context, options OrganizationScanOptions) (OrganizationSummary, error) {
	scanner.logger.Info(fmt.Sprintf(scanningOrganizationMessageTemplate, options.Organization, options.Language))

	repositories, listError := scanner.githubClient.ListOrganizationRepositories(executionContext, options.Organization)
	if listError != nil {
		return OrganizationSummary{}, fmt.Errorf(listRepositoriesErrorTemplate, options.Organization, listError)
	}

	selectedRepositories := SelectRepositories(repositories, options.Language, options.Repositories)
	for _, repository := range selectedRepositories {
		scanner.logger.Info(fmt.Sprintf(repositorySelectedMessageTemplate, repository.FullName))
	}
	totalRepositories := len(selectedRepositories)
	scanner.logger.Info(fmt.Sprintf(repositoriesSelectedMessageTemplate, totalRepositories, options.Language))
	if scanner.observer != nil {
		scanner.observer.RepositoriesSelected(totalRepositories)
	}

	records := make([]RepositoryStatistics, 0, totalRepositories)
	var failedRepositories []string
	for repositoryIndex, repository := range selectedRepositories {
		if contextError := executionContext.Err(); contextError != nil {
			return OrganizationSummary{}, contextError
		}

		scanner.logger.Info(repositorySeparatorMessageConstant)
		scanner.logger.Info(fmt.Sprintf(checkingRepositoryMessageTemplate, repositoryIndex+1, totalRepositories, repository.FullName))
		if scanner.observer != nil {
			scanner.observer.RepositoryStarted(repositoryIndex+1, totalRepositories, repository.FullName)
		}

		statistics, inspectionError := scanner.processor.InspectRepository(executionContext, repository)
		if inspectionError != nil {
			if contextError := executionContext.Err(); contextError != nil {
				return OrganizationSummary{}, contextError
			}
			scanner.logger.Error(
				repositoryFailedMessageConstant,
				zap.String(logFieldFailedRepositoryConstant, repository.FullName),
				zap.Error(inspectionError),
			)
			failedRepositories = append(failedRepositories, repository.FullName)
			if scanner.observer != nil {
				scanner.observer.RepositoryFailed(repository.FullName, inspectionError)
			}
			continue
		}

		records = append(records, statistics)
		if scanner.observer != nil {
			scanner.observer.RepositoryCompleted(statistics)
		}
	}

	summary, summaryError := Summarize(options.Organization, options.Language, records, failedRepositories)
	if summaryError != nil {
		return OrganizationSummary{}, summaryError
	}
	scanner.logSummary(summary)
	if scanner.observer != nil {
		scanner.observer.ScanFinished(summary)
	}
	return summary, nil
}

func (scanner *OrganizationScanner) logSummary(summary OrganizationSummary) {
	scanner.logger.Info(statisticsSeparatorMessageConstant)
	scanner.logger.Info(statisticsHeaderMessageConstant)
	scanner.logger.Info(fmt.Sprintf(statisticsRepositoriesTemplate, summary.Language, summary.RepositoriesScanned))
	scanner.logger.Info(fmt.Sprintf(statisticsDirtyRepositoriesTemplate, summary.DirtyRepositories))
	scanner.logger.Info(fmt.Sprintf(statisticsDirtyBranchesTemplate, summary.DirtyBranches))
	scanner.logger.Info(fmt.Sprintf(statisticsDirtyFilesTemplate, summary.DirtyFiles))
	scanner.logger.Info(fmt.Sprintf(statisticsErrorFilesTemplate, summary.ErrorFiles))
	scanner.logger.Info(fmt.Sprintf(statisticsFailedTemplate, len(summary.FailedRepositories)))
	scanner.logger.Info(fmt.Sprintf(statisticsDirtyFilesSpreadTemplate, summary.MedianDirtyFiles, summary.MaxDirtyFiles))
}
