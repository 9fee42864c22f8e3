// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v84/github"

	"github.com/naka-gawa/github-report/internal/domain"
	"github.com/naka-gawa/github-report/internal/gateway"
)

// maxContributors is the number of contributor logins kept in a report.
const maxContributors = 5

var (
	// ErrInvalidURL is returned for input that is not a repository URL on the expected host.
	ErrInvalidURL = errors.New("invalid repository URL")
	// ErrRepoUnavailable is returned when the repository metadata cannot be fetched.
	ErrRepoUnavailable = errors.New("unable to fetch repository information")
)

// Summarizer turns README text into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Builder assembles one Report per repository URL.
type Builder struct {
	fetcher    gateway.Fetcher
	counts     gateway.CountQuerier
	summarizer Summarizer
	hostPrefix string
	logger     *log.Logger
}

// BuilderOption customizes a Builder.
type BuilderOption func(*Builder)

// WithSummarizer enables README summaries. Without it every report carries
// domain.SummaryDisabled.
func WithSummarizer(s Summarizer) BuilderOption {
	return func(b *Builder) { b.summarizer = s }
}

// WithExactCounts makes the builder prefer exact commit and pull-request
// totals from q over the first-page REST counts.
func WithExactCounts(q gateway.CountQuerier) BuilderOption {
	return func(b *Builder) { b.counts = q }
}

// NewBuilder creates a new Builder instance.
func NewBuilder(fetcher gateway.Fetcher, hostPrefix string, logger *log.Logger, opts ...BuilderOption) *Builder {
	b := &Builder{
		fetcher:    fetcher,
		hostPrefix: hostPrefix,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fetches everything needed for rawURL and returns the finished report.
// Only a missing repository record aborts the report; every other field
// falls back to a placeholder.
func (b *Builder) Build(ctx context.Context, rawURL string) (*domain.Report, error) {
	owner, name, err := b.parseRepoURL(rawURL)
	if err != nil {
		return nil, err
	}
	base := fmt.Sprintf("repos/%s/%s", url.PathEscape(owner), url.PathEscape(name))

	var repo github.Repository
	if err := b.fetcher.FetchInto(ctx, base, &repo); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrRepoUnavailable, rawURL, err)
	}

	report := &domain.Report{
		Name:        orDefault(repo.GetName(), domain.NameUnavailable),
		Owner:       orDefault(repo.GetOwner().GetLogin(), domain.UnknownOwner),
		Description: orDefault(repo.GetDescription(), domain.DescriptionUnavailable),
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		Language:    orDefault(repo.GetLanguage(), domain.LanguageUnspecified),
		OpenIssues:  repo.GetOpenIssuesCount(),
		URL:         rawURL,
	}
	var commitsFetched bool
	report.CommitCount, report.LastCommitDate, commitsFetched = b.commits(ctx, base)
	report.PullRequests = b.pullRequests(ctx, base)
	if b.counts != nil {
		b.applyExactCounts(ctx, owner, name, report, commitsFetched)
	}
	report.TopContributors = b.contributors(ctx, base)
	report.ReadmeSummary = b.readmeSummary(ctx, base)

	// A cancelled run must not leave a report built from placeholders.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return report, nil
}

// parseRepoURL checks the host prefix and returns the owner and name path segments.
func (b *Builder) parseRepoURL(rawURL string) (owner, name string, err error) {
	if rawURL == "" || !strings.HasPrefix(rawURL, b.hostPrefix) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	rest := strings.TrimPrefix(rawURL, b.hostPrefix)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", "", fmt.Errorf("%w: %q has no owner/name", ErrInvalidURL, rawURL)
	}
	return segments[0], strings.TrimSuffix(segments[1], ".git"), nil
}

// commits returns the number of commits on the first page and the date of
// the newest one. An empty history and a failed fetch are reported apart;
// fetched is false only when the list itself could not be retrieved.
func (b *Builder) commits(ctx context.Context, base string) (count int, lastDate string, fetched bool) {
	var commits []*github.RepositoryCommit
	if err := b.fetcher.FetchInto(ctx, base+"/commits", &commits); err != nil {
		b.logger.Warn("commit list unavailable", "repo", base, "err", err)
		return 0, domain.CommitsUnavailable, false
	}
	if len(commits) == 0 {
		return 0, domain.NoCommits, true
	}
	date := commits[0].GetCommit().GetCommitter().GetDate()
	if date.IsZero() {
		return len(commits), domain.CommitsUnavailable, true
	}
	return len(commits), date.UTC().Format(time.RFC3339), true
}

func (b *Builder) pullRequests(ctx context.Context, base string) int {
	var pulls []*github.PullRequest
	if err := b.fetcher.FetchInto(ctx, base+"/pulls?state=open", &pulls); err != nil {
		b.logger.Warn("pull request list unavailable", "repo", base, "err", err)
		return 0
	}
	return len(pulls)
}

// applyExactCounts overwrites the first-page counts when the exact totals
// are available. Failures keep the REST values.
func (b *Builder) applyExactCounts(ctx context.Context, owner, name string, report *domain.Report, commitsFetched bool) {
	counts, err := b.counts.FetchCounts(ctx, owner, name)
	if err != nil {
		b.logger.Warn("exact counts unavailable, keeping first-page counts", "repo", owner+"/"+name, "err", err)
		return
	}
	if commitsFetched {
		report.CommitCount = counts.Commits
	}
	report.PullRequests = counts.OpenPullRequests
}

func (b *Builder) contributors(ctx context.Context, base string) string {
	var contributors []*github.Contributor
	if err := b.fetcher.FetchInto(ctx, base+"/contributors", &contributors); err != nil {
		b.logger.Warn("contributor list unavailable", "repo", base, "err", err)
		return ""
	}
	logins := make([]string, 0, maxContributors)
	for _, c := range contributors {
		if len(logins) == maxContributors {
			break
		}
		logins = append(logins, c.GetLogin())
	}
	return strings.Join(logins, ", ")
}

func (b *Builder) readmeSummary(ctx context.Context, base string) string {
	var readme github.RepositoryContent
	if err := b.fetcher.FetchInto(ctx, base+"/readme", &readme); err != nil {
		b.logger.Warn("README unavailable", "repo", base, "err", err)
		return domain.ReadmeUnavailable
	}
	text, err := readme.GetContent()
	if err != nil {
		b.logger.Warn("README could not be decoded", "repo", base, "err", err)
		return domain.ReadmeUnavailable
	}
	if b.summarizer == nil {
		return domain.SummaryDisabled
	}
	summary, err := b.summarizer.Summarize(ctx, text)
	if err != nil {
		b.logger.Error("summary generation failed", "repo", base, "err", err)
		return domain.SummaryUnavailable
	}
	return summary
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
