// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/profile-banner/internal/domain"
	"github.com/naka-gawa/profile-banner/internal/gateway"
)

// topLanguageCount is how many languages the top_languages counter lists.
const topLanguageCount = 3

// CollectorConfig holds the settings of a Collector.
type CollectorConfig struct {
	// Concurrency bounds how many counters are fetched at once. 1 means sequential.
	Concurrency int
	// Birthday is required by the age counter only.
	Birthday time.Time
}

// Collector is the use case for fetching every counter of a snapshot.
type Collector struct {
	fetcher gateway.Fetcher
	cfg     CollectorConfig
	now     func() time.Time
	logger  logrus.FieldLogger
}

// NewCollector creates a new Collector instance.
func NewCollector(fetcher gateway.Fetcher, cfg CollectorConfig, logger logrus.FieldLogger) *Collector {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Collector{
		fetcher: fetcher,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger,
	}
}

type counterFunc func(ctx context.Context, r *collectRun) (domain.Value, error)

// collectRun carries the state shared by the counters of one Collect call.
type collectRun struct {
	c     *Collector
	login string

	langOnce sync.Once
	langs    map[string]int
	langErr  error
}

func (r *collectRun) languages(ctx context.Context) (map[string]int, error) {
	r.langOnce.Do(func() {
		r.langs, r.langErr = r.c.fetcher.FetchLanguages(ctx, r.login)
	})
	return r.langs, r.langErr
}

func intCounter(fetch func(gateway.Fetcher, context.Context, string) (int, error)) counterFunc {
	return func(ctx context.Context, r *collectRun) (domain.Value, error) {
		n, err := fetch(r.c.fetcher, ctx, r.login)
		if err != nil {
			return domain.Value{}, err
		}
		return domain.Int(n), nil
	}
}

var counters = map[domain.Counter]counterFunc{
	domain.Followers:        intCounter(gateway.Fetcher.FetchFollowers),
	domain.Repos:            intCounter(gateway.Fetcher.FetchOwnedRepos),
	domain.Stars:            intCounter(gateway.Fetcher.FetchStars),
	domain.Commits:          intCounter(gateway.Fetcher.FetchCommits),
	domain.ContributedRepos: intCounter(gateway.Fetcher.FetchContributedRepos),
	domain.CodeBytes: func(ctx context.Context, r *collectRun) (domain.Value, error) {
		langs, err := r.languages(ctx)
		if err != nil {
			return domain.Value{}, err
		}
		return domain.Int(totalBytes(langs)), nil
	},
	domain.TopLanguages: func(ctx context.Context, r *collectRun) (domain.Value, error) {
		langs, err := r.languages(ctx)
		if err != nil {
			return domain.Value{}, err
		}
		return domain.Text(strings.Join(topLanguages(langs, topLanguageCount), ", ")), nil
	},
	domain.Age: func(ctx context.Context, r *collectRun) (domain.Value, error) {
		return domain.Text(domain.Uptime(r.c.cfg.Birthday, r.c.now())), nil
	},
}

// requestCounter is implemented by fetchers that keep track of the API requests they issue.
type requestCounter interface {
	RequestCount(op string) int
}

// requestOp names the fetcher operation whose requests a counter accounts for.
// Both language counters share the single languages walk.
func requestOp(name domain.Counter) string {
	switch name {
	case domain.CodeBytes, domain.TopLanguages:
		return "languages"
	}
	return string(name)
}

// Known reports whether name is a counter the collector can produce.
func Known(name domain.Counter) bool {
	_, ok := counters[name]
	return ok
}

// Collect fetches every requested counter for login and returns them as a
// snapshot in the requested order. The first failure aborts the whole run.
func (c *Collector) Collect(ctx context.Context, login string, names []domain.Counter) (*domain.Snapshot, error) {
	for _, name := range names {
		if !Known(name) {
			return nil, fmt.Errorf("unknown counter %q", name)
		}
		if name == domain.Age && c.cfg.Birthday.IsZero() {
			return nil, fmt.Errorf("counter %q requires a birthday to be configured", name)
		}
	}
	c.logger.WithField("counters", len(names)).Debug("Usecase: starting collection")

	before := c.requestCounts(names)
	run := &collectRun{c: c, login: login}
	values := make([]domain.Value, len(names))
	elapsed := make([]time.Duration, len(names))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.cfg.Concurrency)
	for i, name := range names {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			start := time.Now()
			v, err := counters[name](egCtx, run)
			elapsed[i] = time.Since(start)
			if err != nil {
				return fmt.Errorf("counter %s: %w", name, err)
			}
			values[i] = v
			c.logger.WithFields(logrus.Fields{"counter": name, "value": v.Raw()}).Debug("fetched counter")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	snapshot := domain.NewSnapshot()
	for i, name := range names {
		snapshot.Set(name, values[i])
	}
	c.reportTimings(names, elapsed, before)
	return snapshot, nil
}

// requestCounts snapshots the request count behind each counter, or returns nil
// when the fetcher does not count requests.
func (c *Collector) requestCounts(names []domain.Counter) map[domain.Counter]int {
	rc, ok := c.fetcher.(requestCounter)
	if !ok {
		return nil
	}
	counts := make(map[domain.Counter]int, len(names))
	for _, name := range names {
		counts[name] = rc.RequestCount(requestOp(name))
	}
	return counts
}

func (c *Collector) reportTimings(names []domain.Counter, elapsed []time.Duration, before map[domain.Counter]int) {
	if len(names) == 0 {
		return
	}
	after := c.requestCounts(names)
	millis := make(stats.Float64Data, len(elapsed))
	for i, d := range elapsed {
		millis[i] = float64(d) / float64(time.Millisecond)
		fields := logrus.Fields{"counter": names[i], "ms": millis[i]}
		if after != nil {
			fields["requests"] = after[names[i]] - before[names[i]]
		}
		c.logger.WithFields(fields).Debug("counter timing")
	}
	total, _ := millis.Sum()
	mean, _ := millis.Mean()
	c.logger.WithFields(logrus.Fields{"total_ms": total, "mean_ms": mean}).Debug("Usecase: collection complete")
}

func totalBytes(langs map[string]int) int {
	data := make(stats.Float64Data, 0, len(langs))
	for _, n := range langs {
		data = append(data, float64(n))
	}
	sum, err := stats.Sum(data)
	if err != nil {
		// stats.Sum only fails on empty input.
		return 0
	}
	return int(sum)
}

// topLanguages returns up to n language names ordered by byte count, largest first.
func topLanguages(langs map[string]int, n int) []string {
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
