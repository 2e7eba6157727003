package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/remotehunt/jobscope/internal/utils"
	"github.com/remotehunt/jobscope/pkg/ats"
	"github.com/remotehunt/jobscope/pkg/jobs"
)

// Exporter persists a finished run's aggregate and returns an opaque file
// reference for the Complete event.
type Exporter func(results []jobs.Listing) (string, error)

// RunFullScrape iterates the nine platforms in declaration order,
// delegating each to QueryJobs and bracketing it with AtsStart/AtsComplete
// events. Results are merged without cross-platform dedup: two platforms
// may legitimately carry the same job, and Origin tells them apart.
//
// Platform failures are isolated inside QueryJobs; even if every platform
// fails the run reaches the terminal Complete event. Only an invalid
// preset key or a failed export returns an error.
func RunFullScrape(ctx context.Context, p Provider, technology, level string, cfg FetchConfig, export Exporter, emit func(Event)) ([]jobs.Listing, map[string]int, error) {
	if emit == nil {
		emit = func(Event) {}
	}

	queries, err := ats.BuildQueries(technology, level)
	if err != nil {
		return nil, nil, err
	}
	cfg = cfg.withDefaults()

	total := len(queries)
	counts := make(map[string]int, total)
	var all []jobs.Listing

	for i, q := range queries {
		emit(ATSStartEvent(q.Origin, i, total))
		utils.Log.Infof("[%d/%d] querying %s", i+1, total, q.Origin)

		rows := QueryJobs(ctx, p, q, cfg, emit)
		all = append(all, rows...)
		counts[q.Origin] = len(rows)

		emit(ATSCompleteEvent(q.Origin, len(rows), i, total))
		utils.Log.Infof("[%s] collected %d listings", q.Origin, len(rows))

		if i < total-1 && cfg.PlatformDelay > 0 {
			time.Sleep(cfg.PlatformDelay)
		}
	}

	fileRef := ""
	if export != nil {
		fileRef, err = export(all)
		if err != nil {
			return all, counts, fmt.Errorf("export results: %w", err)
		}
	}

	emit(CompleteEvent(len(all), fileRef, counts))
	return all, counts, nil
}
