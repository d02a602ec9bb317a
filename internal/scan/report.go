package scan

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ReportFormat selects the encoding of a scan report.
type ReportFormat string

// Supported report formats.
const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatYAML ReportFormat = "yaml"
	ReportFormatCSV  ReportFormat = "csv"
)

const (
	reportFilePermissionsConstant   = 0o644
	reportJSONIndentConstant        = "  "
	reportBranchSeparatorConstant   = ";"
	unsupportedReportFormatTemplate = "unsupported report format %q (expected json, yaml or csv)"
	reportEncodeErrorTemplate       = "encode %s report: %w"
	reportCreateErrorTemplate       = "create report %s: %w"
	reportCloseErrorTemplate        = "close report %s: %w"
)

var reportCSVHeader = []string{
	"repository",
	"state",
	"dirty_branches",
	"dirty_files",
	"error_files",
	"contact_name",
	"contact_email",
	"contact_rank",
	"dirty_branch_names",
}

// Report is the serialized form of an organization scan.
type Report struct {
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
	Summary     OrganizationSummary `json:"summary" yaml:"summary"`
}

// ParseReportFormat validates a configured report format.
func ParseReportFormat(value string) (ReportFormat, error) {
	switch ReportFormat(strings.ToLower(strings.TrimSpace(value))) {
	case ReportFormatJSON:
		return ReportFormatJSON, nil
	case ReportFormatYAML:
		return ReportFormatYAML, nil
	case ReportFormatCSV:
		return ReportFormatCSV, nil
	default:
		return "", fmt.Errorf(unsupportedReportFormatTemplate, value)
	}
}

// WriteReport renders report to writer. CSV output carries one row per scanned repository.
func WriteReport(writer io.Writer, format ReportFormat, report Report) error {
	switch format {
	case ReportFormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", reportJSONIndentConstant)
		if encodeError := encoder.Encode(report); encodeError != nil {
			return fmt.Errorf(reportEncodeErrorTemplate, format, encodeError)
		}
		return nil
	case ReportFormatYAML:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(2)
		if encodeError := encoder.Encode(report); encodeError != nil {
			return fmt.Errorf(reportEncodeErrorTemplate, format, encodeError)
		}
		if closeError := encoder.Close(); closeError != nil {
			return fmt.Errorf(reportEncodeErrorTemplate, format, closeError)
		}
		return nil
	case ReportFormatCSV:
		return writeCSVReport(writer, report.Summary)
	default:
		return fmt.Errorf(unsupportedReportFormatTemplate, format)
	}
}

// WriteReportFile writes report to path, replacing any previous report.
func WriteReportFile(path string, format ReportFormat, report Report) (writeError error) {
	reportFile, createError := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, reportFilePermissionsConstant)
	if createError != nil {
		return fmt.Errorf(reportCreateErrorTemplate, path, createError)
	}
	defer func() {
		if closeError := reportFile.Close(); closeError != nil && writeError == nil {
			writeError = fmt.Errorf(reportCloseErrorTemplate, path, closeError)
		}
	}()

	return WriteReport(reportFile, format, report)
}

func writeCSVReport(writer io.Writer, summary OrganizationSummary) error {
	csvWriter := csv.NewWriter(writer)
	if headerError := csvWriter.Write(reportCSVHeader); headerError != nil {
		return fmt.Errorf(reportEncodeErrorTemplate, ReportFormatCSV, headerError)
	}

	for _, record := range summary.Repositories {
		row := []string{
			record.RepositoryName,
			string(record.State),
			strconv.Itoa(record.DirtyBranches),
			strconv.Itoa(record.DirtyFiles),
			strconv.Itoa(record.ErrorFiles),
			record.ContactName,
			record.ContactEmail,
			strconv.Itoa(int(record.ContactRank)),
			strings.Join(record.DirtyBranchNames(), reportBranchSeparatorConstant),
		}
		if rowError := csvWriter.Write(row); rowError != nil {
			return fmt.Errorf(reportEncodeErrorTemplate, ReportFormatCSV, rowError)
		}
	}

	csvWriter.Flush()
	if flushError := csvWriter.Error(); flushError != nil {
		return fmt.Errorf(reportEncodeErrorTemplate, ReportFormatCSV, flushError)
	}
	return nil
}
