package ats

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTechnology = errors.New("unknown technology preset")
	ErrUnknownLevel      = errors.New("unknown level preset")
)

// RecencyPastWeek restricts provider results to postings from the last
// 7 days. It rides along on every SearchQuery so the builder owns the
// freshness filter and query strings stay deterministic.
const RecencyPastWeek = "qdr:w"

const (
	remoteClause   = `"remote"`
	locationClause = `"LATAM" OR "global"`
)

// SearchQuery is the immutable query for one platform. Origin matches the
// PlatformRule it was built from.
type SearchQuery struct {
	Origin  string
	Query   string
	Recency string
}

// BuildQueries generates one search query per ATS platform, in platform
// order. The query concatenates the platform site restriction, the remote
// clause, the technology keyword disjunction, the level keyword
// disjunction and the location clause, with the last two suppressed per
// the platform's rule. Same inputs always produce byte-identical queries.
func BuildQueries(technology, level string) ([]SearchQuery, error) {
	tech, ok := TechnologyByKey(technology)
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownTechnology, technology, strings.Join(TechnologyKeys(), ", "))
	}
	lvl, ok := LevelByKey(level)
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownLevel, level, strings.Join(LevelKeys(), ", "))
	}

	techClause := strings.Join(tech.Keywords, " OR ")
	levelClause := strings.Join(lvl.Keywords, " OR ")

	queries := make([]SearchQuery, 0, len(Platforms))
	for _, p := range Platforms {
		parts := []string{p.Site, remoteClause, techClause}
		if levelClause != "" && !p.SuppressLevelFilter {
			parts = append(parts, levelClause)
		}
		if !p.SuppressLocationFilter {
			parts = append(parts, locationClause)
		}
		queries = append(queries, SearchQuery{
			Origin:  p.Origin,
			Query:   strings.Join(parts, " "),
			Recency: RecencyPastWeek,
		})
	}
	return queries, nil
}
