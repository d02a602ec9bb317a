package scan

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/notebook-audit/internal/githubauth"
	"github.com/temirov/notebook-audit/internal/notebooks"
	"github.com/temirov/notebook-audit/internal/repos/dependencies"
	"github.com/temirov/notebook-audit/internal/repos/shared"
	"github.com/temirov/notebook-audit/internal/utils/flags"
	pathutils "github.com/temirov/notebook-audit/internal/utils/path"
)

const (
	commandUseConstant              = "scan [TOKEN]"
	commandShortDescriptionConstant = "Find notebooks committed with output cells across an organization"
	commandLongDescriptionConstant  = "scan clones every unarchived repository of a GitHub organization that contains Jupyter notebooks, strips notebook outputs on every remote branch and reports the branches whose notebooks change. TOKEN defaults to GH_TOKEN, GITHUB_TOKEN or GITHUB_API_TOKEN."

	organizationFlagNameConstant  = "organization"
	organizationFlagUsageConstant = "GitHub organization to scan"
	cloneRootFlagNameConstant     = "clone-root"
	cloneRootFlagUsageConstant    = "Directory that holds the temporary clone"
	languageFlagNameConstant      = "language"
	languageFlagUsageConstant     = "Repository language that marks notebook repositories"
	cleanerFlagNameConstant       = "cleaner"
	cleanerFlagUsageConstant      = "Notebook output stripper: nbstripout or the built-in cleaner"
	repositoryFlagNameConstant    = "repository"
	repositoryFlagUsageConstant   = "Restrict the scan to owner/name (repeatable)"
	reportFlagNameConstant        = "report"
	reportFlagUsageConstant       = "Write the scan report to this file"
	reportFormatFlagNameConstant  = "report-format"
	reportFormatFlagUsageConstant = "Report encoding"
	progressFlagNameConstant      = "progress"
	progressFlagUsageConstant     = "Render a progress bar on stderr"

	tokenResolutionErrorTemplate     = "resolve GitHub token: %w"
	invalidConfigurationTemplate     = "invalid scan configuration: %w"
	pathResolutionErrorTemplate      = "resolve %s path: %w"
	dependencyConstructionTemplate   = "construct %s: %w"
	scanFailedErrorTemplate          = "scan %s: %w"
	reportWriteErrorTemplate         = "write report: %w"
	reportWrittenMessageConstant     = "Report written"
	scanConfiguredMessageConstant    = "Scan configured"
	logFieldOrganizationConstant     = "organization"
	logFieldCloneRootConstant        = "clone_root"
	logFieldCleanerConstant          = "cleaner"
	logFieldReportPathConstant       = "report_path"
	logFieldReportFormatConstant     = "report_format"
	logFieldRepositoryFilterConstant = "repository_filter"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ObserverSettings describes the console surfaces a scan observer may draw on.
type ObserverSettings struct {
	Output          io.Writer
	ProgressOutput  io.Writer
	VerdictsEnabled bool
	ProgressEnabled bool
}

// ObserverFactory constructs the scan observer for one command run. It may return nil.
type ObserverFactory func(settings ObserverSettings) ScanObserver

// CommandBuilder assembles the scan cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	HumanReadableLoggingProvider func() bool
	ObserverFactory              ObserverFactory
	ShellExecutor                shared.ShellExecutor
	GitManager                   shared.GitRepositoryManager
	GitHubClient                 shared.GitHubClient
	FileSystem                   shared.FileSystem
	Discoverer                   shared.NotebookDiscoverer
	Cleaner                      notebooks.Cleaner
	Clock                        shared.Clock
	EnvironmentLookup            githubauth.EnvironmentLookup
	HomeExpander                 *pathutils.HomeExpander
}

type commandOptions struct {
	token        string
	organization string
	cloneRoot    string
	language     string
	cleanerKind  notebooks.CleanerKind
	repositories []shared.OwnerRepository
	reportPath   string
	reportFormat ReportFormat
	progress     bool
}

// Build constructs the scan command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          builder.run,
	}

	defaults := DefaultCommandConfiguration()
	commandFlags := command.Flags()
	commandFlags.String(organizationFlagNameConstant, defaults.Organization, organizationFlagUsageConstant)
	commandFlags.String(cloneRootFlagNameConstant, defaults.CloneRoot, cloneRootFlagUsageConstant)
	commandFlags.String(languageFlagNameConstant, defaults.Language, languageFlagUsageConstant)
	flags.AddChoiceFlag(commandFlags, nil, cleanerFlagNameConstant, defaults.Cleaner, []string{string(notebooks.CleanerKindExternal), string(notebooks.CleanerKindBuiltin)}, cleanerFlagUsageConstant)
	commandFlags.StringArray(repositoryFlagNameConstant, nil, repositoryFlagUsageConstant)
	commandFlags.String(reportFlagNameConstant, defaults.ReportPath, reportFlagUsageConstant)
	flags.AddChoiceFlag(commandFlags, nil, reportFormatFlagNameConstant, defaults.ReportFormat, []string{string(ReportFormatJSON), string(ReportFormatYAML), string(ReportFormatCSV)}, reportFormatFlagUsageConstant)
	flags.AddToggleFlag(commandFlags, nil, progressFlagNameConstant, defaults.Progress, progressFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	logger.Debug(
		scanConfiguredMessageConstant,
		zap.String(logFieldOrganizationConstant, options.organization),
		zap.String(logFieldCloneRootConstant, options.cloneRoot),
		zap.String(logFieldCleanerConstant, string(options.cleanerKind)),
		zap.Int(logFieldRepositoryFilterConstant, len(options.repositories)),
	)

	scanner, scannerError := builder.buildScanner(command, options, logger)
	if scannerError != nil {
		return scannerError
	}

	summary, scanError := scanner.Scan(command.Context(), OrganizationScanOptions{
		Organization: options.organization,
		Language:     options.language,
		Repositories: options.repositories,
	})
	if scanError != nil {
		return fmt.Errorf(scanFailedErrorTemplate, options.organization, scanError)
	}

	if len(options.reportPath) == 0 {
		return nil
	}

	report := Report{GeneratedAt: builder.resolveClock().Now().UTC(), Summary: summary}
	if writeError := WriteReportFile(options.reportPath, options.reportFormat, report); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplate, writeError)
	}
	logger.Info(
		reportWrittenMessageConstant,
		zap.String(logFieldReportPathConstant, options.reportPath),
		zap.String(logFieldReportFormatConstant, string(options.reportFormat)),
	)
	return nil
}

func (builder *CommandBuilder) buildScanner(command *cobra.Command, options commandOptions, logger *zap.Logger) (*OrganizationScanner, error) {
	shellExecutor, executorError := dependencies.ResolveShellExecutor(builder.ShellExecutor, logger)
	if executorError != nil {
		return nil, fmt.Errorf(dependencyConstructionTemplate, "shell executor", executorError)
	}

	gitManager, managerError := dependencies.ResolveGitRepositoryManager(builder.GitManager, shellExecutor)
	if managerError != nil {
		return nil, fmt.Errorf(dependencyConstructionTemplate, "repository manager", managerError)
	}

	cleaner, cleanerError := dependencies.ResolveNotebookCleaner(builder.Cleaner, options.cleanerKind, shellExecutor)
	if cleanerError != nil {
		return nil, fmt.Errorf(dependencyConstructionTemplate, "notebook cleaner", cleanerError)
	}

	githubClient, githubError := dependencies.ResolveGitHubClient(builder.GitHubClient, options.token, logger)
	if githubError != nil {
		return nil, fmt.Errorf(dependencyConstructionTemplate, "GitHub client", githubError)
	}

	branchInspector, branchError := NewBranchInspector(gitManager, dependencies.ResolveNotebookDiscoverer(builder.Discoverer, logger), cleaner, logger)
	if branchError != nil {
		return nil, fmt.Errorf(dependencyConstructionTemplate, "branch inspector", branchError)
	}

	contactResolver, contactError := NewContactResolver(githubClient, gitManager, logger)
	if contactError != nil {
		return nil, fmt.Errorf(dependencyConstructionTemplate, "contact resolver", contactError)
	}

	repositoryInspector, repositoryError := NewRepositoryInspector(
		gitManager,
		dependencies.ResolveFileSystem(builder.FileSystem),
		branchInspector,
		contactResolver,
		logger,
		RepositoryInspectorOptions{Token: options.token, CloneRoot: options.cloneRoot},
	)
	if repositoryError != nil {
		return nil, fmt.Errorf(dependencyConstructionTemplate, "repository inspector", repositoryError)
	}

	return NewOrganizationScanner(githubClient, repositoryInspector, builder.resolveObserver(command, options), logger)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) (commandOptions, error) {
	configuration := builder.resolveConfiguration()
	commandFlags := command.Flags()

	if commandFlags.Changed(organizationFlagNameConstant) {
		configuration.Organization, _ = commandFlags.GetString(organizationFlagNameConstant)
	}
	if commandFlags.Changed(cloneRootFlagNameConstant) {
		configuration.CloneRoot, _ = commandFlags.GetString(cloneRootFlagNameConstant)
	}
	if commandFlags.Changed(languageFlagNameConstant) {
		configuration.Language, _ = commandFlags.GetString(languageFlagNameConstant)
	}
	if commandFlags.Changed(cleanerFlagNameConstant) {
		configuration.Cleaner = commandFlags.Lookup(cleanerFlagNameConstant).Value.String()
	}
	if commandFlags.Changed(repositoryFlagNameConstant) {
		configuration.Repositories, _ = commandFlags.GetStringArray(repositoryFlagNameConstant)
	}
	if commandFlags.Changed(reportFlagNameConstant) {
		configuration.ReportPath, _ = commandFlags.GetString(reportFlagNameConstant)
	}
	if commandFlags.Changed(reportFormatFlagNameConstant) {
		configuration.ReportFormat = commandFlags.Lookup(reportFormatFlagNameConstant).Value.String()
	}
	if commandFlags.Changed(progressFlagNameConstant) {
		configuration.Progress, _ = commandFlags.GetBool(progressFlagNameConstant)
	}
	configuration = configuration.Sanitize()

	cleanerKind, cleanerError := notebooks.ParseCleanerKind(configuration.Cleaner)
	if cleanerError != nil {
		return commandOptions{}, fmt.Errorf(invalidConfigurationTemplate, cleanerError)
	}
	reportFormat, formatError := ParseReportFormat(configuration.ReportFormat)
	if formatError != nil {
		return commandOptions{}, fmt.Errorf(invalidConfigurationTemplate, formatError)
	}

	repositories := make([]shared.OwnerRepository, 0, len(configuration.Repositories))
	for _, repository := range configuration.Repositories {
		ownerRepository, repositoryError := shared.NewOwnerRepository(repository)
		if repositoryError != nil {
			return commandOptions{}, fmt.Errorf(invalidConfigurationTemplate, repositoryError)
		}
		repositories = append(repositories, ownerRepository)
	}

	homeExpander := builder.resolveHomeExpander()
	cloneRoot, cloneRootError := homeExpander.ExpandAbsolute(configuration.CloneRoot)
	if cloneRootError != nil {
		return commandOptions{}, fmt.Errorf(pathResolutionErrorTemplate, cloneRootFlagNameConstant, cloneRootError)
	}
	reportPath, reportPathError := homeExpander.ExpandAbsolute(configuration.ReportPath)
	if reportPathError != nil {
		return commandOptions{}, fmt.Errorf(pathResolutionErrorTemplate, reportFlagNameConstant, reportPathError)
	}

	explicitToken := ""
	if len(arguments) > 0 {
		explicitToken = arguments[0]
	}
	token, tokenError := githubauth.ResolveToken(explicitToken, builder.EnvironmentLookup)
	if tokenError != nil {
		return commandOptions{}, fmt.Errorf(tokenResolutionErrorTemplate, tokenError)
	}

	return commandOptions{
		token:        token,
		organization: configuration.Organization,
		cloneRoot:    cloneRoot,
		language:     configuration.Language,
		cleanerKind:  cleanerKind,
		repositories: repositories,
		reportPath:   reportPath,
		reportFormat: reportFormat,
		progress:     configuration.Progress,
	}, nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveObserver(command *cobra.Command, options commandOptions) ScanObserver {
	if builder.ObserverFactory == nil {
		return nil
	}
	verdictsEnabled := builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider()
	return builder.ObserverFactory(ObserverSettings{
		Output:          command.OutOrStdout(),
		ProgressOutput:  command.ErrOrStderr(),
		VerdictsEnabled: verdictsEnabled,
		ProgressEnabled: options.progress,
	})
}

func (builder *CommandBuilder) resolveClock() shared.Clock {
	if builder.Clock == nil {
		return shared.SystemClock{}
	}
	return builder.Clock
}

func (builder *CommandBuilder) resolveHomeExpander() *pathutils.HomeExpander {
	if builder.HomeExpander == nil {
		return pathutils.NewHomeExpander()
	}
	return builder.HomeExpander
}
