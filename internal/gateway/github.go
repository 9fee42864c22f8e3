// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v84/github"
	"github.com/gregjones/httpcache"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
)

// ErrUnavailable is returned when a document could not be fetched within the
// allowed number of attempts. Callers treat it as "data unavailable".
var ErrUnavailable = errors.New("data unavailable")

// Fetcher defines the behavior of a gateway for fetching JSON documents from GitHub.
// A path is either relative to the API base URL or fully qualified.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (json.RawMessage, error)
	FetchInto(ctx context.Context, path string, v any) error
}

// CountQuerier fetches exact totals that the REST list endpoints only expose page by page.
type CountQuerier interface {
	FetchCounts(ctx context.Context, owner, name string) (*RepoCounts, error)
}

// RepoCounts holds exact totals for a single repository.
type RepoCounts struct {
	Commits          int
	OpenPullRequests int
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Options configures a GitHubGateway. Zero values fall back to the defaults
// documented on each field.
type Options struct {
	Token      string
	BaseURL    string // "https://api.github.com/" when empty
	GraphQLURL string // "https://api.github.com/graphql" when empty

	MaxAttempts   int           // 3 when zero
	RateLimitWait time.Duration // pause after a 403
	RetryWait     time.Duration // pause after any other failure

	Sleep Sleeper         // SleepContext when nil
	Cache httpcache.Cache // in-memory when nil
}

// GitHubGateway is the concrete implementation of Fetcher and CountQuerier.
// It is not safe for concurrent use.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	cache         httpcache.Cache
	sleep         Sleeper
	maxAttempts   int
	rateLimitWait time.Duration
	retryWait     time.Duration
	logger        *log.Logger
}

// repoCountsQuery asks for both totals in a single round trip.
type repoCountsQuery struct {
	Repository struct {
		PullRequests struct {
			TotalCount int
		} `graphql:"pullRequests(states: OPEN)"`
		DefaultBranchRef struct {
			Target struct {
				Commit struct {
					History struct {
						TotalCount int
					}
				} `graphql:"... on Commit"`
			}
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// The HTTP stack is oauth2 (only when a token is set) over the secondary
// rate-limit middleware over the default transport.
func NewGitHubGateway(opts Options, logger *log.Logger) (*GitHubGateway, error) {
	httpClient := &http.Client{Transport: github_ratelimit.NewSecondaryLimiter(http.DefaultTransport)}
	if opts.Token != "" {
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Base:   httpClient.Transport,
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			},
		}
	}

	restClient := github.NewClient(httpClient)
	// Primary limit responses must reach Fetch as 403s so it can pause and retry.
	restClient.DisableRateLimitCheck = true
	if opts.BaseURL != "" {
		baseURL, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse API base URL: %w", err)
		}
		restClient.BaseURL = baseURL
	}

	graphqlURL := opts.GraphQLURL
	if graphqlURL == "" {
		graphqlURL = "https://api.github.com/graphql"
	}

	g := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: githubv4.NewEnterpriseClient(graphqlURL, httpClient),
		cache:         opts.Cache,
		sleep:         opts.Sleep,
		maxAttempts:   opts.MaxAttempts,
		rateLimitWait: opts.RateLimitWait,
		retryWait:     opts.RetryWait,
		logger:        logger,
	}
	if g.cache == nil {
		g.cache = httpcache.NewMemoryCache()
	}
	if g.sleep == nil {
		g.sleep = SleepContext
	}
	if g.maxAttempts < 1 {
		g.maxAttempts = 3
	}
	return g, nil
}

// Fetch returns the JSON body served at path. A cached body is returned
// without touching the network. Otherwise the request is attempted up to
// maxAttempts times: a 403 pauses for rateLimitWait, any other failure for
// retryWait. Only a 200 response is cached.
func (g *GitHubGateway) Fetch(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := g.restClient.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	key := req.URL.String()

	if body, ok := g.cache.Get(key); ok {
		g.logger.Debug("cache hit", "url", key)
		return body, nil
	}

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		var body json.RawMessage
		resp, err := g.restClient.Do(ctx, req, &body)
		if err == nil && resp.StatusCode == http.StatusOK {
			g.cache.Set(key, body)
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		wait := g.retryWait
		if resp != nil && resp.StatusCode == http.StatusForbidden {
			wait = g.rateLimitWait
			g.logger.Warn("rate limit reached, pausing", "url", key, "wait", wait)
		} else {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			g.logger.Error("request failed", "url", key, "status", status, "attempt", fmt.Sprintf("%d/%d", attempt, g.maxAttempts), "err", err)
		}

		if attempt == g.maxAttempts {
			break
		}
		if err := g.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", key, ErrUnavailable)
}

// FetchInto fetches path and decodes the JSON body into v.
func (g *GitHubGateway) FetchInto(ctx context.Context, path string, v any) error {
	body, err := g.Fetch(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// FetchCounts returns the exact commit total on the default branch and the
// exact number of open pull requests, using one GraphQL query.
func (g *GitHubGateway) FetchCounts(ctx context.Context, owner, name string) (*RepoCounts, error) {
	variables := map[string]any{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	}
	var q repoCountsQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for counts: %w", err)
	}
	return &RepoCounts{
		Commits:          q.Repository.DefaultBranchRef.Target.Commit.History.TotalCount,
		OpenPullRequests: q.Repository.PullRequests.TotalCount,
	}, nil
}
