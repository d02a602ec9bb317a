// Package scan audits the notebook repositories of a GitHub organization.
//
// OrganizationScanner lists and filters repositories, RepositoryInspector
// clones each one and walks its remote branches, and BranchInspector strips
// notebook outputs and reads the resulting diff. Results are aggregated into
// RepositoryStatistics and an OrganizationSummary that WriteReport renders as
// JSON, YAML or CSV. CommandBuilder exposes the workflow as the scan command.
package scan
