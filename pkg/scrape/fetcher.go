package scrape

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/remotehunt/jobscope/internal/utils"
	"github.com/remotehunt/jobscope/pkg/ats"
	"github.com/remotehunt/jobscope/pkg/jobs"
	"github.com/remotehunt/jobscope/pkg/serper"
)

// Provider is the search side of the external provider.
type Provider interface {
	Search(ctx context.Context, query ats.SearchQuery, page int) ([]serper.Hit, error)
}

// FetchConfig bounds a run. Zero TargetMin/MaxPages fall back to the
// defaults; zero delays mean no pacing (tests rely on that).
type FetchConfig struct {
	TargetMin     int           // stop once this many unique listings collected
	MaxPages      int           // hard cap on pages per platform
	PageDelay     time.Duration // pacing between consecutive page requests
	PlatformDelay time.Duration // pacing between platforms
}

func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		TargetMin:     50,
		MaxPages:      5,
		PageDelay:     time.Second,
		PlatformDelay: 2 * time.Second,
	}
}

func (c FetchConfig) withDefaults() FetchConfig {
	if c.TargetMin <= 0 {
		c.TargetMin = 50
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 5
	}
	return c
}

// QueryJobs walks result pages for one platform query until it has
// TargetMin unique listings, the page cap is hit, or the provider runs
// dry. A provider error ends the loop early and is reported as an Error
// event; whatever was already collected is still returned, so one
// platform's failure never costs another's results.
func QueryJobs(ctx context.Context, p Provider, query ats.SearchQuery, cfg FetchConfig, emit func(Event)) []jobs.Listing {
	cfg = cfg.withDefaults()
	if emit == nil {
		emit = func(Event) {}
	}

	limiter := pageLimiter(cfg.PageDelay)
	seen := make(map[string]struct{})
	var listings []jobs.Listing

	for page := 1; page <= cfg.MaxPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			emit(ErrorEvent(query.Origin, err.Error()))
			break
		}

		utils.Log.Infof("[%s] fetching page %d", query.Origin, page)
		hits, err := p.Search(ctx, query, page)
		if err != nil {
			utils.Log.Errorf("[%s] page %d failed: %v", query.Origin, page, err)
			emit(ErrorEvent(query.Origin, err.Error()))
			break
		}

		for _, h := range hits {
			link := strings.TrimSpace(h.Link)
			if link == "" {
				continue
			}
			key := jobs.NormalizeLink(link)
			if _, dup := seen[key]; dup {
				continue
			}
			if !jobs.IsValidLink(link) {
				continue
			}
			seen[key] = struct{}{}
			listings = append(listings, jobs.Listing{
				Title:   strings.TrimSpace(h.Title),
				Snippet: strings.TrimSpace(h.Snippet),
				Link:    link,
				Origin:  query.Origin,
			})
		}

		emit(PageFetchedEvent(query.Origin, page, len(listings)))

		if len(listings) >= cfg.TargetMin {
			break
		}
		if len(hits) == 0 {
			utils.Log.Debugf("[%s] no more results", query.Origin)
			break
		}
	}

	return listings
}

// pageLimiter paces page requests: the first request passes immediately,
// each following one waits out the delay.
func pageLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
