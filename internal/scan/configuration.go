package scan

import (
	"strings"

	"github.com/temirov/notebook-audit/internal/notebooks"
)

const (
	defaultOrganizationConstant = "statisticsnorway"
	defaultCloneRootConstant    = "../tmp-repos"
	defaultLanguageConstant     = "Jupyter Notebook"

	configurationOrganizationKeyConstant = "organization"
	configurationCloneRootKeyConstant    = "clone_root"
	configurationLanguageKeyConstant     = "language"
	configurationCleanerKeyConstant      = "cleaner"
	configurationRepositoriesKeyConstant = "repositories"
	configurationReportPathKeyConstant   = "report_path"
	configurationReportFormatKeyConstant = "report_format"
	configurationProgressKeyConstant     = "progress"
)

// CommandConfiguration captures the persisted settings of the scan command.
type CommandConfiguration struct {
	Organization string   `mapstructure:"organization"`
	CloneRoot    string   `mapstructure:"clone_root"`
	Language     string   `mapstructure:"language"`
	Cleaner      string   `mapstructure:"cleaner"`
	Repositories []string `mapstructure:"repositories"`
	ReportPath   string   `mapstructure:"report_path"`
	ReportFormat string   `mapstructure:"report_format"`
	Progress     bool     `mapstructure:"progress"`
}

// DefaultCommandConfiguration returns baseline configuration values for the scan command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Organization: defaultOrganizationConstant,
		CloneRoot:    defaultCloneRootConstant,
		Language:     defaultLanguageConstant,
		Cleaner:      string(notebooks.CleanerKindExternal),
		Repositories: []string{},
		ReportPath:   "",
		ReportFormat: string(ReportFormatJSON),
		Progress:     false,
	}
}

// DefaultConfigurationValues returns the defaults keyed for the configuration loader under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		configurationKey(prefix, configurationOrganizationKeyConstant): defaults.Organization,
		configurationKey(prefix, configurationCloneRootKeyConstant):    defaults.CloneRoot,
		configurationKey(prefix, configurationLanguageKeyConstant):     defaults.Language,
		configurationKey(prefix, configurationCleanerKeyConstant):      defaults.Cleaner,
		configurationKey(prefix, configurationRepositoriesKeyConstant): defaults.Repositories,
		configurationKey(prefix, configurationReportPathKeyConstant):   defaults.ReportPath,
		configurationKey(prefix, configurationReportFormatKeyConstant): defaults.ReportFormat,
		configurationKey(prefix, configurationProgressKeyConstant):     defaults.Progress,
	}
}

// Sanitize trims values, drops blank repository entries and restores defaults for blank required settings.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	sanitized.Organization = valueOrDefault(configuration.Organization, defaults.Organization)
	sanitized.CloneRoot = valueOrDefault(configuration.CloneRoot, defaults.CloneRoot)
	sanitized.Language = valueOrDefault(configuration.Language, defaults.Language)
	sanitized.Cleaner = valueOrDefault(configuration.Cleaner, defaults.Cleaner)
	sanitized.ReportFormat = valueOrDefault(configuration.ReportFormat, defaults.ReportFormat)
	sanitized.ReportPath = strings.TrimSpace(configuration.ReportPath)

	sanitized.Repositories = make([]string, 0, len(configuration.Repositories))
	for _, repository := range configuration.Repositories {
		trimmedRepository := strings.TrimSpace(repository)
		if len(trimmedRepository) == 0 {
			continue
		}
		sanitized.Repositories = append(sanitized.Repositories, trimmedRepository)
	}

	return sanitized
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}

func configurationKey(prefix string, key string) string {
	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return key
	}
	return trimmedPrefix + "." + key
}
