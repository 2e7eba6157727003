package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/remotehunt/jobscope/pkg/ats"
	"github.com/remotehunt/jobscope/pkg/jobs"
	"github.com/remotehunt/jobscope/pkg/scrape"
	"github.com/remotehunt/jobscope/pkg/storage"
)

type startRequest struct {
	Technology string `json:"technology"`
	Level      string `json:"level"`
}

func (s *Server) handleStartScrape(w http.ResponseWriter, r *http.Request) {
	req := startRequest{Technology: "php", Level: "any"}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Technology == "" {
		req.Technology = "php"
	}
	if req.Level == "" {
		req.Level = "any"
	}

	if _, ok := ats.TechnologyByKey(req.Technology); !ok {
		http.Error(w, fmt.Sprintf("unknown technology %q", req.Technology), http.StatusBadRequest)
		return
	}
	if _, ok := ats.LevelByKey(req.Level); !ok {
		http.Error(w, fmt.Sprintf("unknown level %q", req.Level), http.StatusBadRequest)
		return
	}

	res := s.State.Start(req.Technology, req.Level)
	status := "started"
	if res.AlreadyRunning {
		status = "already-running"
	}
	writeJSON(w, map[string]string{
		"status":     status,
		"run_id":     res.RunID,
		"stream_url": "/api/fetch-jobs/stream",
	})
}

func (s *Server) handleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.State.Snapshot())
}

func (s *Server) handleScrapeReset(w http.ResponseWriter, r *http.Request) {
	if err := s.State.Reset(); err != nil {
		if errors.Is(err, scrape.ErrRunInProgress) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "reset"})
}

func (s *Server) handleScrapeStream(w http.ResponseWriter, r *http.Request) {
	sn := s.State.Snapshot()
	if !sn.Running && !sn.Completed && sn.EventsCount == 0 {
		http.Error(w, "no scrape has been started", http.StatusConflict)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	timeout := s.StreamTimeout
	if timeout <= 0 {
		timeout = defaultStreamTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	for ev := range s.State.Stream(ctx) {
		b, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", b)
		flusher.Flush()
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		fmt.Fprintf(w, "data: %s\n\n", `{"event":"error","message":"stream timeout"}`)
		flusher.Flush()
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin := q.Get("origin")
	search := q.Get("search")

	listings, file, err := s.loadJobs(r.Context(), origin, search)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if listings == nil {
		listings = []jobs.Listing{}
	}
	writeJSON(w, map[string]any{
		"jobs":  listings,
		"total": len(listings),
		"file":  file,
	})
}

// loadJobs serves the latest run from the database, falling back to the
// newest CSV export when the database is empty or absent.
func (s *Server) loadJobs(ctx context.Context, origin, search string) ([]jobs.Listing, string, error) {
	if s.Store != nil {
		rec, err := s.Store.LatestRun(ctx)
		if err != nil {
			return nil, "", err
		}
		if rec != nil {
			listings, err := s.Store.ListListings(ctx, storage.ListOptions{
				RunID:  rec.RunID,
				Origin: origin,
				Search: search,
			})
			if err != nil {
				return nil, "", err
			}
			return listings, rec.CSVFile, nil
		}
	}

	path, err := storage.LatestCSV(s.OutputDir)
	if err != nil || path == "" {
		return nil, "", err
	}
	all, err := storage.LoadResultsFromCSV(path)
	if err != nil {
		return nil, "", err
	}

	var out []jobs.Listing
	for _, l := range all {
		if origin != "" && l.Origin != origin {
			continue
		}
		if search != "" && !containsFold(l.Title, search) && !containsFold(l.Snippet, search) {
			continue
		}
		out = append(out, l)
	}
	return out, path, nil
}

func (s *Server) handleListOrigins(w http.ResponseWriter, r *http.Request) {
	counts := []storage.OriginCount{}
	if s.Store != nil {
		rec, err := s.Store.LatestRun(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if rec != nil {
			counts, err = s.Store.CountOrigins(r.Context(), rec.RunID)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
	}
	writeJSON(w, counts)
}

func (s *Server) handleListTechnologies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, ats.TechnologyPresets)
}

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, ats.LevelPresets)
}

type scrapeURLRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleScrapeURL(w http.ResponseWriter, r *http.Request) {
	var req scrapeURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}

	content, err := s.Serper.Scrape(r.Context(), req.URL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, content)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
