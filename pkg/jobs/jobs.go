// Package jobs holds the job listing value type and the validation rules
// that decide whether a raw search hit belongs to one of the target ATS
// properties.
package jobs

import (
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/remotehunt/jobscope/pkg/ats"
)

// Listing is one validated job posting. Link is the dedup key after
// normalization; Origin is the label of the platform whose query found it.
type Listing struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	Origin  string `json:"origin"`
}

// Generic aggregators and social sites that the site: restriction lets
// through anyway (mirrors, reposts, "via LinkedIn" pages).
var excludedPatterns = []string{
	"facebook.com",
	"linkedin.com",
	"twitter.com",
	"reddit.com",
	"hacker-news",
	"hnhiring.com",
	"glassdoor.com",
	"indeed.com",
	"ziprecruiter.com",
	"weworkremotely.com",
	"jobleads.com",
	"upwork.com",
	"dover.com",
	"dovercorporation.com",
	"app.dover.com/dover/careers",
}

var validPatterns = []string{
	"greenhouse.io",
	"lever.co",
	"ashbyhq.com",
	"workable.com",
	"breezy.hr",
	"jazz.co",
	"smartrecruiters.com",
	"icims.com",
	"pinpointhq.com",
	"app.dover.",
}

// NormalizeLink lowercases a link and strips the trailing slash so the
// same posting URL always yields the same dedup key.
func NormalizeLink(link string) string {
	link = strings.ToLower(strings.TrimSpace(link))
	return strings.TrimSuffix(link, "/")
}

// IsValidLink reports whether a hit's link points at one of the target
// ATS properties rather than an aggregator mirror.
func IsValidLink(link string) bool {
	lowered := strings.ToLower(link)
	for _, pattern := range excludedPatterns {
		if strings.Contains(lowered, pattern) {
			return false
		}
	}
	for _, pattern := range validPatterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

// DetectOrigin infers the platform label from a link's registrable
// domain. Returns "Unknown" for links that match no platform, such as
// rows loaded from a hand-edited CSV.
func DetectOrigin(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Hostname() == "" {
		return "Unknown"
	}

	domain, err := publicsuffix.Domain(u.Hostname())
	if err != nil {
		return "Unknown"
	}

	domain = strings.ToLower(domain)
	for _, p := range ats.Platforms {
		if domain == p.Domain {
			return p.Origin
		}
	}
	return "Unknown"
}
