package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/remotehunt/jobscope/pkg/jobs"
)

var csvHeader = []string{"Job Title", "Snippet", "Link"}

// SaveResultsToCSV writes a run's listings to
// jobs_{technology}_{level}_{date}.csv under outputDir, creating the
// directory if needed, and returns the file's path.
func SaveResultsToCSV(results []jobs.Listing, outputDir, technology, level string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("jobs_%s_%s_%s.csv", technology, level, time.Now().Format("2006-01-02"))
	path := filepath.Join(outputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, r := range results {
		if err := w.Write([]string{r.Title, r.Snippet, r.Link}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}

// LatestCSV returns the most recently written export in dir, or "" when
// none exist.
func LatestCSV(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "jobs_*_*_*.csv"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}

	sort.Slice(matches, func(i, j int) bool {
		fi, ierr := os.Stat(matches[i])
		fj, jerr := os.Stat(matches[j])
		if ierr != nil || jerr != nil {
			return matches[i] > matches[j]
		}
		return fi.ModTime().After(fj.ModTime())
	})
	return matches[0], nil
}

// LoadResultsFromCSV reads an export back into listings. The origin
// column is not stored in the file, so it is re-derived from each link.
func LoadResultsFromCSV(path string) ([]jobs.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var out []jobs.Listing
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		out = append(out, jobs.Listing{
			Title:   rec[0],
			Snippet: rec[1],
			Link:    rec[2],
			Origin:  jobs.DetectOrigin(rec[2]),
		})
	}
	return out, nil
}
