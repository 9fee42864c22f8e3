package domain

import "strconv"

// Placeholder values written when a field cannot be fetched.
const (
	NameUnavailable        = "Name unavailable"
	UnknownOwner           = "Unknown owner"
	DescriptionUnavailable = "Description unavailable"
	LanguageUnspecified    = "Language not specified"
	NoCommits              = "No commits"
	CommitsUnavailable     = "Commits unavailable"
	ReadmeUnavailable      = "README unavailable."
	SummaryUnavailable     = "Summary unavailable."
	SummaryDisabled        = "Summary disabled."
)

// Header lists the CSV columns in the order produced by Report.Record.
var Header = []string{
	"repository_name",
	"owner",
	"description",
	"stars",
	"forks",
	"commit_count",
	"last_commit_date",
	"language",
	"open_issues",
	"pull_requests",
	"top_contributors",
	"readme_summary",
	"url",
}

// Report is the flat metadata and summary record built for one repository.
// It is created once per input row and never modified afterwards.
type Report struct {
	Name            string `json:"repository_name"`
	Owner           string `json:"owner"`
	Description     string `json:"description"`
	Stars           int    `json:"stars"`
	Forks           int    `json:"forks"`
	CommitCount     int    `json:"commit_count"`
	LastCommitDate  string `json:"last_commit_date"`
	Language        string `json:"language"`
	OpenIssues      int    `json:"open_issues"`
	PullRequests    int    `json:"pull_requests"`
	TopContributors string `json:"top_contributors"`
	ReadmeSummary   string `json:"readme_summary"`
	URL             string `json:"url"`
}

// Record returns the report as CSV fields, in Header order.
func (r *Report) Record() []string {
	return []string{
		r.Name,
		r.Owner,
		r.Description,
		strconv.Itoa(r.Stars),
		strconv.Itoa(r.Forks),
		strconv.Itoa(r.CommitCount),
		r.LastCommitDate,
		r.Language,
		strconv.Itoa(r.OpenIssues),
		strconv.Itoa(r.PullRequests),
		r.TopContributors,
		r.ReadmeSummary,
		r.URL,
	}
}
