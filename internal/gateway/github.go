// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/profile-banner/internal/cache"
	"github.com/naka-gawa/profile-banner/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching profile statistics from GitHub.
type Fetcher interface {
	FetchFollowers(ctx context.Context, login string) (int, error)
	FetchOwnedRepos(ctx context.Context, login string) (int, error)
	FetchStars(ctx context.Context, login string) (int, error)
	FetchCommits(ctx context.Context, login string) (int, error)
	FetchContributedRepos(ctx context.Context, login string) (int, error)
	// FetchLanguages returns bytes of code per language across the owned, non-fork repositories.
	FetchLanguages(ctx context.Context, login string) (map[string]int, error)
}

// Options configures the HTTP side of the gateway.
type Options struct {
	Token   string
	Timeout time.Duration
	// GraphQLURL and APIURL override the github.com endpoints, e.g. for GitHub Enterprise.
	GraphQLURL string
	APIURL     string
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	cache         *cache.Cache
	// timeout bounds every single API request. Zero means no bound.
	timeout time.Duration
	logger  logrus.FieldLogger

	mu       sync.Mutex
	requests map[string]int
}

type pageInfo struct {
	HasNextPage bool
	EndCursor   githubv4.String
}

type followersQuery struct {
	User struct {
		Followers struct {
			TotalCount int
		}
	} `graphql:"user(login: $login)"`
}

type ownedReposQuery struct {
	User struct {
		Repositories struct {
			TotalCount int
		} `graphql:"repositories(ownerAffiliations: OWNER, isFork: false)"`
	} `graphql:"user(login: $login)"`
}

type starsQuery struct {
	User struct {
		Repositories struct {
			PageInfo pageInfo
			Nodes    []struct {
				Stargazers struct {
					TotalCount int
				}
			}
		} `graphql:"repositories(first: 100, after: $cursor, ownerAffiliations: OWNER, isFork: false)"`
	} `graphql:"user(login: $login)"`
}

type commitsQuery struct {
	User struct {
		ContributionsCollection struct {
			TotalCommitContributions int
		}
	} `graphql:"user(login: $login)"`
}

type contributedReposQuery struct {
	User struct {
		RepositoriesContributedTo struct {
			PageInfo pageInfo
			Nodes    []struct {
				NameWithOwner string
			}
		} `graphql:"repositoriesContributedTo(first: 100, after: $cursor, includeUserRepositories: false, contributionTypes: [COMMIT, ISSUE, PULL_REQUEST, REPOSITORY])"`
	} `graphql:"user(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// c may be nil, in which case nothing is cached.
func NewGitHubGateway(opts Options, c *cache.Cache, logger logrus.FieldLogger) (*GitHubGateway, error) {
	// A rate-limit sleep longer than the request timeout can never complete.
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(opts.Timeout, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	// Requests are bounded through their context rather than http.Client.Timeout,
	// which would try the no-op oauth2.Transport.CancelRequest on expiry.
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}

	restClient := github.NewClient(httpClient)
	if opts.APIURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", opts.APIURL, err)
		}
		restClient.BaseURL = baseURL
	}
	graphqlClient := githubv4.NewClient(httpClient)
	if opts.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		cache:         c,
		timeout:       opts.Timeout,
		logger:        logger,
	}, nil
}

// RequestCount reports how many API requests op has issued so far.
// op is a counter name, or "languages" for the REST language walk.
func (g *GitHubGateway) RequestCount(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[op]
}

// startRequest records a request for op and returns its context, bounded by the
// configured timeout.
func (g *GitHubGateway) startRequest(ctx context.Context, op string) (context.Context, context.CancelFunc) {
	g.mu.Lock()
	if g.requests == nil {
		g.requests = make(map[string]int)
	}
	g.requests[op]++
	g.mu.Unlock()

	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *GitHubGateway) query(ctx context.Context, op string, q interface{}, variables map[string]interface{}) error {
	ctx, cancel := g.startRequest(ctx, op)
	defer cancel()
	if err := g.graphqlClient.Query(ctx, q, variables); err != nil {
		return &domain.FetchError{Op: op, Err: fmt.Errorf("failed to execute GraphQL query: %w", err)}
	}
	return nil
}

func (g *GitHubGateway) FetchFollowers(ctx context.Context, login string) (int, error) {
	var q followersQuery
	if err := g.query(ctx, "followers", &q, map[string]interface{}{"login": githubv4.String(login)}); err != nil {
		return 0, err
	}
	return q.User.Followers.TotalCount, nil
}

func (g *GitHubGateway) FetchOwnedRepos(ctx context.Context, login string) (int, error) {
	var q ownedReposQuery
	if err := g.query(ctx, "repos", &q, map[string]interface{}{"login": githubv4.String(login)}); err != nil {
		return 0, err
	}
	return q.User.Repositories.TotalCount, nil
}

func (g *GitHubGateway) FetchCommits(ctx context.Context, login string) (int, error) {
	var q commitsQuery
	if err := g.query(ctx, "commits", &q, map[string]interface{}{"login": githubv4.String(login)}); err != nil {
		return 0, err
	}
	return q.User.ContributionsCollection.TotalCommitContributions, nil
}

// FetchStars sums stargazers over every owned, non-fork repository.
func (g *GitHubGateway) FetchStars(ctx context.Context, login string) (int, error) {
	return g.sumPages(ctx, "stars", func(cursor *githubv4.String) (int, pageInfo, error) {
		var q starsQuery
		variables := map[string]interface{}{"login": githubv4.String(login), "cursor": cursor}
		if err := g.query(ctx, "stars", &q, variables); err != nil {
			return 0, pageInfo{}, err
		}
		sum := 0
		for _, node := range q.User.Repositories.Nodes {
			sum += node.Stargazers.TotalCount
		}
		return sum, q.User.Repositories.PageInfo, nil
	})
}

// FetchContributedRepos counts repositories owned by others that the user contributed to.
func (g *GitHubGateway) FetchContributedRepos(ctx context.Context, login string) (int, error) {
	return g.sumPages(ctx, "contributed_repos", func(cursor *githubv4.String) (int, pageInfo, error) {
		var q contributedReposQuery
		variables := map[string]interface{}{"login": githubv4.String(login), "cursor": cursor}
		if err := g.query(ctx, "contributed_repos", &q, variables); err != nil {
			return 0, pageInfo{}, err
		}
		return len(q.User.RepositoriesContributedTo.Nodes), q.User.RepositoriesContributedTo.PageInfo, nil
	})
}

// sumPages keeps requesting pages, passing along the cursor of the previous
// page, until the API reports that no further pages remain.
func (g *GitHubGateway) sumPages(ctx context.Context, op string, page func(cursor *githubv4.String) (int, pageInfo, error)) (int, error) {
	var cursor *githubv4.String
	total := 0
	for n := 1; ; n++ {
		sum, info, err := page(cursor)
		if err != nil {
			return 0, err
		}
		total += sum
		g.logger.WithFields(logrus.Fields{"counter": op, "page": n, "subtotal": total}).Debug("fetched page")
		if !info.HasNextPage {
			break
		}
		cursor = githubv4.NewString(info.EndCursor)
	}
	return total, nil
}

// FetchLanguages walks the owned repositories through the REST API and adds up
// their language byte counts. Results are cached per login.
func (g *GitHubGateway) FetchLanguages(ctx context.Context, login string) (map[string]int, error) {
	key := "languages:" + login
	var cached map[string]int
	if g.cache.Get(key, &cached) {
		return cached, nil
	}

	opts := &github.RepositoryListByUserOptions{
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	totals := make(map[string]int)
	for {
		reqCtx, cancel := g.startRequest(ctx, "languages")
		repos, resp, err := g.restClient.Repositories.ListByUser(reqCtx, login, opts)
		cancel()
		if err != nil {
			return nil, &domain.FetchError{Op: "languages", Err: fmt.Errorf("failed to list repositories with REST API: %w", err)}
		}
		for _, repo := range repos {
			if repo.GetFork() {
				continue
			}
			reqCtx, cancel := g.startRequest(ctx, "languages")
			langs, _, err := g.restClient.Repositories.ListLanguages(reqCtx, repo.GetOwner().GetLogin(), repo.GetName())
			cancel()
			if err != nil {
				return nil, &domain.FetchError{Op: "languages", Err: fmt.Errorf("failed to list languages of %s: %w", repo.GetFullName(), err)}
			}
			for lang, bytes := range langs {
				totals[lang] += bytes
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.WithField("page", opts.Page).Debug("fetching next page of repositories")
	}

	g.cache.Put(key, totals)
	return totals, nil
}
