package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-report/internal/domain"
	"github.com/naka-gawa/github-report/internal/gateway"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// Fetch expectations return the raw JSON body as a string.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, path string) (json.RawMessage, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return json.RawMessage(args.String(0)), args.Error(1)
}

func (m *mockFetcher) FetchInto(ctx context.Context, path string, v any) error {
	body, err := m.Fetch(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

type mockCounts struct {
	mock.Mock
}

func (m *mockCounts) FetchCounts(ctx context.Context, owner, name string) (*gateway.RepoCounts, error) {
	args := m.Called(ctx, owner, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.RepoCounts), args.Error(1)
}

const (
	repoBody         = `{"name":"repo","owner":{"login":"octo"},"description":"Reports things","stargazers_count":42,"forks_count":7,"language":"Go","open_issues_count":3}`
	commitsBody      = `[{"commit":{"committer":{"date":"2026-01-02T03:04:05Z"}}},{"commit":{"committer":{"date":"2025-12-31T00:00:00Z"}}}]`
	contributorsBody = `[{"login":"a1"},{"login":"a2"},{"login":"a3"},{"login":"a4"},{"login":"a5"},{"login":"a6"}]`
	pullsBody        = `[{"number":1},{"number":2}]`
	readmeText       = "# Repo\n\nA tool that reports things.\n"
)

func readmeBody() string {
	return fmt.Sprintf(`{"encoding":"base64","content":%q}`, base64.StdEncoding.EncodeToString([]byte(readmeText)))
}

func newTestLogger() *log.Logger {
	return log.New(io.Discard)
}

// expectAll registers a response for every endpoint of repos/octo/repo.
// A nil entry makes that endpoint unavailable.
func expectAll(f *mockFetcher, bodies map[string]any) {
	for path, body := range bodies {
		if body == nil {
			f.On("Fetch", mock.Anything, path).Return(nil, gateway.ErrUnavailable)
			continue
		}
		f.On("Fetch", mock.Anything, path).Return(body, nil)
	}
}

func defaultBodies() map[string]any {
	return map[string]any{
		"repos/octo/repo":                  repoBody,
		"repos/octo/repo/commits":          commitsBody,
		"repos/octo/repo/contributors":     contributorsBody,
		"repos/octo/repo/pulls?state=open": pullsBody,
		"repos/octo/repo/readme":           readmeBody(),
	}
}

func TestBuilder_Build_HappyPath(t *testing.T) {
	fetcher := new(mockFetcher)
	expectAll(fetcher, defaultBodies())
	summarizer := new(mockSummarizer)
	summarizer.On("Summarize", mock.Anything, readmeText).Return("A reporting tool.", nil)

	builder := NewBuilder(fetcher, "https://github.com/", newTestLogger(), WithSummarizer(summarizer))
	report, err := builder.Build(context.Background(), "https://github.com/octo/repo")

	require.NoError(t, err)
	assert.Equal(t, &domain.Report{
		Name:            "repo",
		Owner:           "octo",
		Description:     "Reports things",
		Stars:           42,
		Forks:           7,
		CommitCount:     2,
		LastCommitDate:  "2026-01-02T03:04:05Z",
		Language:        "Go",
		OpenIssues:      3,
		PullRequests:    2,
		TopContributors: "a1, a2, a3, a4, a5",
		ReadmeSummary:   "A reporting tool.",
		URL:             "https://github.com/octo/repo",
	}, report)
	fetcher.AssertExpectations(t)
	summarizer.AssertExpectations(t)
}

func TestBuilder_Build_InvalidURL(t *testing.T) {
	testCases := []struct {
		name string
		url  string
	}{
		{name: "empty", url: ""},
		{name: "wrong scheme", url: "http://github.com/octo/repo"},
		{name: "wrong host", url: "https://gitlab.com/octo/repo"},
		{name: "owner only", url: "https://github.com/octo"},
		{name: "host only", url: "https://github.com/"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := new(mockFetcher)
			builder := NewBuilder(fetcher, "https://github.com/", newTestLogger())

			report, err := builder.Build(context.Background(), tc.url)

			assert.ErrorIs(t, err, ErrInvalidURL)
			assert.Nil(t, report)
			fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
		})
	}
}

func TestBuilder_Build_NormalizesRepoPath(t *testing.T) {
	testCases := []string{
		"https://github.com/octo/repo/",
		"https://github.com/octo/repo.git",
		"https://github.com/octo/repo/tree/main?tab=readme#usage",
	}
	for _, rawURL := range testCases {
		t.Run(rawURL, func(t *testing.T) {
			fetcher := new(mockFetcher)
			fetcher.On("Fetch", mock.Anything, "repos/octo/repo").Return(nil, gateway.ErrUnavailable)
			builder := NewBuilder(fetcher, "https://github.com/", newTestLogger())

			_, err := builder.Build(context.Background(), rawURL)

			assert.ErrorIs(t, err, ErrRepoUnavailable)
			fetcher.AssertExpectations(t)
		})
	}
}

func TestBuilder_Build_RepoUnavailable(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("Fetch", mock.Anything, "repos/octo/repo").Return(nil, gateway.ErrUnavailable)
	builder := NewBuilder(fetcher, "https://github.com/", newTestLogger())

	report, err := builder.Build(context.Background(), "https://github.com/octo/repo")

	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrRepoUnavailable)
	assert.ErrorIs(t, err, gateway.ErrUnavailable)
	assert.Contains(t, err.Error(), "unable to fetch repository information")
	fetcher.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestBuilder_Build_DegradesPerField(t *testing.T) {
	testCases := []struct {
		name     string
		override map[string]any
		check    func(t *testing.T, r *domain.Report)
	}{
		{
			name:     "commits unavailable",
			override: map[string]any{"repos/octo/repo/commits": nil},
			check: func(t *testing.T, r *domain.Report) {
				assert.Equal(t, 0, r.CommitCount)
				assert.Equal(t, domain.CommitsUnavailable, r.LastCommitDate)
			},
		},
		{
			name:     "no commits",
			override: map[string]any{"repos/octo/repo/commits": `[]`},
			check: func(t *testing.T, r *domain.Report) {
				assert.Equal(t, 0, r.CommitCount)
				assert.Equal(t, domain.NoCommits, r.LastCommitDate)
			},
		},
		{
			name:     "contributors and pulls unavailable",
			override: map[string]any{"repos/octo/repo/contributors": nil, "repos/octo/repo/pulls?state=open": nil},
			check: func(t *testing.T, r *domain.Report) {
				assert.Empty(t, r.TopContributors)
				assert.Equal(t, 0, r.PullRequests)
			},
		},
		{
			name:     "readme unavailable",
			override: map[string]any{"repos/octo/repo/readme": nil},
			check: func(t *testing.T, r *domain.Report) {
				assert.Equal(t, domain.ReadmeUnavailable, r.ReadmeSummary)
			},
		},
		{
			name:     "sparse repository record",
			override: map[string]any{"repos/octo/repo": `{"description":null,"language":null}`},
			check: func(t *testing.T, r *domain.Report) {
				assert.Equal(t, domain.NameUnavailable, r.Name)
				assert.Equal(t, domain.UnknownOwner, r.Owner)
				assert.Equal(t, domain.DescriptionUnavailable, r.Description)
				assert.Equal(t, domain.LanguageUnspecified, r.Language)
				assert.Equal(t, 0, r.Stars)
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bodies := defaultBodies()
			for path, body := range tc.override {
				bodies[path] = body
			}
			fetcher := new(mockFetcher)
			expectAll(fetcher, bodies)
			summarizer := new(mockSummarizer)
			summarizer.On("Summarize", mock.Anything, mock.Anything).Return("summary", nil).Maybe()

			builder := NewBuilder(fetcher, "https://github.com/", newTestLogger(), WithSummarizer(summarizer))
			report, err := builder.Build(context.Background(), "https://github.com/octo/repo")

			require.NoError(t, err)
			tc.check(t, report)
		})
	}
}

func TestBuilder_Build_SummaryFallbacks(t *testing.T) {
	t.Run("summarizer error yields the placeholder", func(t *testing.T) {
		fetcher := new(mockFetcher)
		expectAll(fetcher, defaultBodies())
		summarizer := new(mockSummarizer)
		summarizer.On("Summarize", mock.Anything, readmeText).Return("", errors.New("model exploded"))

		builder := NewBuilder(fetcher, "https://github.com/", newTestLogger(), WithSummarizer(summarizer))
		report, err := builder.Build(context.Background(), "https://github.com/octo/repo")

		require.NoError(t, err)
		assert.Equal(t, "Summary unavailable.", report.ReadmeSummary)
		summarizer.AssertExpectations(t)
	})

	t.Run("no summarizer configured", func(t *testing.T) {
		fetcher := new(mockFetcher)
		expectAll(fetcher, defaultBodies())

		builder := NewBuilder(fetcher, "https://github.com/", newTestLogger())
		report, err := builder.Build(context.Background(), "https://github.com/octo/repo")

		require.NoError(t, err)
		assert.Equal(t, domain.SummaryDisabled, report.ReadmeSummary)
	})
}

func TestBuilder_Build_ExactCounts(t *testing.T) {
	testCases := []struct {
		name            string
		commitsBody     any
		counts          *gateway.RepoCounts
		countsErr       error
		expectedCommits int
		expectedPulls   int
	}{
		{
			name:            "exact totals replace first-page counts",
			commitsBody:     commitsBody,
			counts:          &gateway.RepoCounts{Commits: 1234, OpenPullRequests: 56},
			expectedCommits: 1234,
			expectedPulls:   56,
		},
		{
			name:            "query failure keeps first-page counts",
			commitsBody:     commitsBody,
			countsErr:       errors.New("graphql down"),
			expectedCommits: 2,
			expectedPulls:   2,
		},
		{
			name:            "fetched list without a committer date still takes the exact total",
			commitsBody:     `[{"commit":{"message":"init"}}]`,
			counts:          &gateway.RepoCounts{Commits: 1234, OpenPullRequests: 56},
			expectedCommits: 1234,
			expectedPulls:   56,
		},
		{
			name:            "unavailable commit list stays at zero",
			commitsBody:     nil,
			counts:          &gateway.RepoCounts{Commits: 1234, OpenPullRequests: 56},
			expectedCommits: 0,
			expectedPulls:   56,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bodies := defaultBodies()
			bodies["repos/octo/repo/commits"] = tc.commitsBody
			fetcher := new(mockFetcher)
			expectAll(fetcher, bodies)
			counts := new(mockCounts)
			if tc.countsErr != nil {
				counts.On("FetchCounts", mock.Anything, "octo", "repo").Return(nil, tc.countsErr)
			} else {
				counts.On("FetchCounts", mock.Anything, "octo", "repo").Return(tc.counts, nil)
			}

			builder := NewBuilder(fetcher, "https://github.com/", newTestLogger(), WithExactCounts(counts))
			report, err := builder.Build(context.Background(), "https://github.com/octo/repo")

			require.NoError(t, err)
			assert.Equal(t, tc.expectedCommits, report.CommitCount)
			assert.Equal(t, tc.expectedPulls, report.PullRequests)
			counts.AssertExpectations(t)
		})
	}
}
