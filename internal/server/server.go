// Package server exposes the scrape engine over HTTP: run control and an
// SSE progress stream, plus read endpoints for stored results and presets.
package server

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/remotehunt/jobscope/internal/utils"
	"github.com/remotehunt/jobscope/pkg/scrape"
	"github.com/remotehunt/jobscope/pkg/serper"
	"github.com/remotehunt/jobscope/pkg/storage"
)

//go:embed web
var WebFS embed.FS

const defaultStreamTimeout = 10 * time.Minute

type Server struct {
	State         *scrape.State
	Store         *storage.DB
	Serper        *serper.Client
	OutputDir     string
	StreamTimeout time.Duration
}

func New(state *scrape.State, store *storage.DB, client *serper.Client, outputDir string) *Server {
	return &Server{
		State:         state,
		Store:         store,
		Serper:        client,
		OutputDir:     outputDir,
		StreamTimeout: defaultStreamTimeout,
	}
}

func (s *Server) Router() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/fetch-jobs", s.handleStartScrape)
		r.Get("/fetch-jobs/stream", s.handleScrapeStream)
		r.Get("/fetch-jobs/status", s.handleScrapeStatus)
		r.Post("/fetch-jobs/reset", s.handleScrapeReset)

		r.Get("/jobs", s.handleListJobs)
		r.Get("/origins", s.handleListOrigins)
		r.Get("/technologies", s.handleListTechnologies)
		r.Get("/levels", s.handleListLevels)

		r.Post("/scrape", s.handleScrapeURL)
	})

	webRoot, err := fs.Sub(WebFS, "web")
	if err != nil {
		return nil, err
	}
	r.Handle("/*", http.FileServer(http.FS(webRoot)))

	return r, nil
}

func (s *Server) Start(addr string) error {
	handler, err := s.Router()
	if err != nil {
		return err
	}
	utils.Log.Infof("listening on %s", addr)
	return http.ListenAndServe(addr, handler)
}
