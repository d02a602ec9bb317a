package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/temirov/notebook-audit/internal/scan"
	"github.com/temirov/notebook-audit/internal/utils"
)

const (
	dirtyVerdictLabelConstant           = "DIRTY "
	cleanVerdictLabelConstant           = "CLEAN "
	failedVerdictLabelConstant          = "FAILED"
	dirtyVerdictTemplateConstant        = "%s %s: %d dirty branches, %d dirty notebooks, contact %s\n"
	cleanVerdictTemplateConstant        = "%s %s\n"
	failedVerdictTemplateConstant       = "%s %s: %v\n"
	summaryVerdictTemplateConstant      = "%s: %d of %d repositories dirty, %d dirty notebooks, %d failed\n"
	contactTemplateConstant             = "%s <%s>"
	unresolvedContactConstant           = "unknown"
	progressDescriptionConstant         = "Scanning"
	progressWidthConstant               = 30
	progressDescriptionTemplateConstant = "[%d/%d] %s"
)

// ScanReporter renders colored per-repository verdicts and an optional progress bar.
type ScanReporter struct {
	output          io.Writer
	progressOutput  io.Writer
	verdictsEnabled bool
	progressEnabled bool
	colorEnabled    bool
	dirtyColor      *color.Color
	cleanColor      *color.Color
	failedColor     *color.Color
	summaryColor    *color.Color
	progressBar     *progressbar.ProgressBar
}

// NewScanReporter constructs a ScanReporter for the provided settings.
func NewScanReporter(settings scan.ObserverSettings, colorEnabled bool) *ScanReporter {
	reporter := &ScanReporter{
		output:          settings.Output,
		progressOutput:  settings.ProgressOutput,
		verdictsEnabled: settings.VerdictsEnabled && settings.Output != nil,
		progressEnabled: settings.ProgressEnabled && settings.ProgressOutput != nil,
		colorEnabled:    colorEnabled,
		dirtyColor:      color.New(color.FgRed, color.Bold),
		cleanColor:      color.New(color.FgGreen),
		failedColor:     color.New(color.FgYellow, color.Bold),
		summaryColor:    color.New(color.Bold),
	}
	for _, verdictColor := range []*color.Color{reporter.dirtyColor, reporter.cleanColor, reporter.failedColor, reporter.summaryColor} {
		if colorEnabled {
			verdictColor.EnableColor()
		} else {
			verdictColor.DisableColor()
		}
	}
	return reporter
}

// RepositoriesSelected sizes the progress bar.
func (reporter *ScanReporter) RepositoriesSelected(total int) {
	if !reporter.progressEnabled || total <= 0 {
		return
	}
	reporter.progressBar = progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(utils.NewFlushingWriter(reporter.progressOutput)),
		progressbar.OptionSetDescription(progressDescriptionConstant),
		progressbar.OptionSetWidth(progressWidthConstant),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionEnableColorCodes(reporter.colorEnabled),
	)
}

// RepositoryStarted names the repository being inspected on the progress bar.
func (reporter *ScanReporter) RepositoryStarted(index int, total int, repositoryName string) {
	if reporter.progressBar == nil {
		return
	}
	reporter.progressBar.Describe(fmt.Sprintf(progressDescriptionTemplateConstant, index, total, repositoryName))
}

// RepositoryCompleted prints the verdict of a scanned repository.
func (reporter *ScanReporter) RepositoryCompleted(statistics scan.RepositoryStatistics) {
	if reporter.verdictsEnabled {
		if statistics.State == scan.RepositoryStateDirty {
			fmt.Fprintf(
				reporter.output,
				dirtyVerdictTemplateConstant,
				reporter.dirtyColor.Sprint(dirtyVerdictLabelConstant),
				statistics.RepositoryName,
				statistics.DirtyBranches,
				statistics.DirtyFiles,
				formatContact(statistics),
			)
		} else {
			fmt.Fprintf(reporter.output, cleanVerdictTemplateConstant, reporter.cleanColor.Sprint(cleanVerdictLabelConstant), statistics.RepositoryName)
		}
	}
	reporter.advance()
}

// RepositoryFailed prints the verdict of a repository that could not be scanned.
func (reporter *ScanReporter) RepositoryFailed(repositoryName string, failure error) {
	if reporter.verdictsEnabled {
		fmt.Fprintf(reporter.output, failedVerdictTemplateConstant, reporter.failedColor.Sprint(failedVerdictLabelConstant), repositoryName, failure)
	}
	reporter.advance()
}

// ScanFinished completes the progress bar and prints the organization summary.
func (reporter *ScanReporter) ScanFinished(summary scan.OrganizationSummary) {
	if reporter.progressBar != nil {
		_ = reporter.progressBar.Finish()
		fmt.Fprintln(reporter.progressOutput)
		reporter.progressBar = nil
	}
	if !reporter.verdictsEnabled {
		return
	}
	summaryLine := fmt.Sprintf(
		summaryVerdictTemplateConstant,
		summary.Organization,
		summary.DirtyRepositories,
		summary.RepositoriesScanned,
		summary.DirtyFiles,
		len(summary.FailedRepositories),
	)
	fmt.Fprint(reporter.output, reporter.summaryColor.Sprint(summaryLine))
}

func (reporter *ScanReporter) advance() {
	if reporter.progressBar == nil {
		return
	}
	_ = reporter.progressBar.Add(1)
}

func formatContact(statistics scan.RepositoryStatistics) string {
	if statistics.ContactRank == scan.ContactRankUnresolved {
		return unresolvedContactConstant
	}
	return fmt.Sprintf(contactTemplateConstant, statistics.ContactName, statistics.ContactEmail)
}
