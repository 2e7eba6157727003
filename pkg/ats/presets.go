package ats

// Preset is a named bundle of quoted search keywords. Technology presets
// describe a stack ("python" matches Django and FastAPI postings too),
// level presets describe seniority. Keyword order is part of the preset:
// generated queries must be byte-identical across runs.
type Preset struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Keywords []string `json:"keywords"`
}

// PlatformRule is one ATS platform entry. The nine platforms are plain
// data: only the site restriction and the filter-suppression flags vary.
// Slice order is the scrape iteration order and must stay stable.
type PlatformRule struct {
	Origin string // label attached to every listing from this platform
	Site   string // search-engine site: restriction
	Domain string // registrable domain, used for origin detection

	// Some ATS properties return near-zero results when the extra
	// filter clauses are present, so those clauses are suppressed.
	SuppressLevelFilter    bool
	SuppressLocationFilter bool
}

var TechnologyPresets = []Preset{
	{Key: "php", Label: "PHP", Keywords: []string{`"PHP"`, `"Laravel"`}},
	{Key: "javascript", Label: "JavaScript", Keywords: []string{`"JavaScript"`, `"TypeScript"`, `"React"`, `"Node.js"`}},
	{Key: "python", Label: "Python", Keywords: []string{`"Python"`, `"Django"`, `"FastAPI"`, `"Flask"`}},
	{Key: "java", Label: "Java", Keywords: []string{`"Java"`, `"Spring"`, `"Spring Boot"`}},
	{Key: "csharp", Label: "C#", Keywords: []string{`"C#"`, `".NET"`, `"ASP.NET"`}},
	{Key: "ruby", Label: "Ruby", Keywords: []string{`"Ruby"`, `"Ruby on Rails"`}},
	{Key: "go", Label: "Go", Keywords: []string{`"Golang"`, `"Go Developer"`}},
	{Key: "rust", Label: "Rust", Keywords: []string{`"Rust"`, `"Rust Developer"`}},
	{Key: "devops", Label: "DevOps", Keywords: []string{`"DevOps"`, `"SRE"`, `"Platform Engineer"`, `"Kubernetes"`}},
	{Key: "data", Label: "Data", Keywords: []string{`"Data Engineer"`, `"Data Scientist"`, `"Machine Learning"`, `"MLOps"`}},
	{Key: "mobile", Label: "Mobile", Keywords: []string{`"iOS"`, `"Android"`, `"React Native"`, `"Flutter"`}},
}

// The "any" level carries no keywords and therefore no level clause.
var LevelPresets = []Preset{
	{Key: "any", Label: "Any Level", Keywords: nil},
	{Key: "trainee", Label: "Trainee", Keywords: []string{`"Trainee"`, `"Intern"`, `"Internship"`}},
	{Key: "junior", Label: "Junior", Keywords: []string{`"Junior"`, `"Jr"`, `"Entry Level"`, `"Entry-Level"`}},
	{Key: "mid", Label: "Mid-Level", Keywords: []string{`"Mid-Level"`, `"Mid Level"`, `"Middle"`, `"Intermediate"`}},
	{Key: "senior", Label: "Senior", Keywords: []string{`"Senior"`, `"Sr"`, `"Lead"`}},
	{Key: "staff", Label: "Staff", Keywords: []string{`"Staff"`, `"Staff Engineer"`, `"Principal"`}},
	{Key: "manager", Label: "Manager", Keywords: []string{`"Engineering Manager"`, `"Tech Lead"`, `"CTO"`, `"VP of Engineering"`}},
}

// Platforms lists the nine supported ATS properties in scrape order.
var Platforms = []PlatformRule{
	{Origin: "Green House", Site: "site:greenhouse.io", Domain: "greenhouse.io"},
	{Origin: "Lever", Site: "site:lever.co", Domain: "lever.co"},
	{Origin: "AshBy", Site: "site:jobs.ashbyhq.com", Domain: "ashbyhq.com"},
	{Origin: "Workable", Site: "site:jobs.workable.com", Domain: "workable.com"},
	{Origin: "Breezy", Site: "site:breezy.hr", Domain: "breezy.hr"},
	{Origin: "Jazz CO", Site: "site:jazz.co", Domain: "jazz.co"},
	{Origin: "Smart Recruiters", Site: "site:smartrecruiters.com", Domain: "smartrecruiters.com"},
	{Origin: "ICIMS", Site: "site:icims.com", Domain: "icims.com", SuppressLocationFilter: true},
	{Origin: "PinpointHQ", Site: "site:pinpointhq.com", Domain: "pinpointhq.com", SuppressLevelFilter: true, SuppressLocationFilter: true},
}

// TechnologyByKey looks up a technology preset.
func TechnologyByKey(key string) (Preset, bool) {
	return presetByKey(TechnologyPresets, key)
}

// LevelByKey looks up a seniority level preset.
func LevelByKey(key string) (Preset, bool) {
	return presetByKey(LevelPresets, key)
}

func presetByKey(presets []Preset, key string) (Preset, bool) {
	for _, p := range presets {
		if p.Key == key {
			return p, true
		}
	}
	return Preset{}, false
}

// TechnologyKeys returns the preset keys in declaration order.
func TechnologyKeys() []string {
	return presetKeys(TechnologyPresets)
}

// LevelKeys returns the level keys in declaration order.
func LevelKeys() []string {
	return presetKeys(LevelPresets)
}

func presetKeys(presets []Preset) []string {
	keys := make([]string, 0, len(presets))
	for _, p := range presets {
		keys = append(keys, p.Key)
	}
	return keys
}
