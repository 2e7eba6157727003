// Package serper is the client for the Serper API: keyword search with
// paging, and scrape-to-content for individual job pages.
package serper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/remotehunt/jobscope/pkg/ats"
)

const (
	defaultSearchURL = "https://google.serper.dev/search"
	defaultScrapeURL = "https://scrape.serper.dev"

	pageSize       = 10
	requestTimeout = 30 * time.Second
)

var ErrMissingAPIKey = errors.New("serper: missing API key")

// Hit is one raw organic search result, unvalidated.
type Hit struct {
	Title   string
	Snippet string
	Link    string
}

// Content is a scraped job page.
type Content struct {
	Markdown string `json:"markdown"`
	Text     string `json:"text"`
}

// Client talks to both Serper endpoints. Search never retries — the page
// loop owns pacing and failure handling — while Scrape gets a couple of
// retries since it serves interactive requests.
type Client struct {
	SearchURL string
	ScrapeURL string

	apiKey string
	search *retryablehttp.Client
	scrape *retryablehttp.Client
}

func NewClient(apiKey string) *Client {
	search := retryablehttp.NewClient()
	search.Logger = log.New(io.Discard, "", 0)
	search.RetryMax = 0
	search.HTTPClient.Timeout = requestTimeout

	scrape := retryablehttp.NewClient()
	scrape.Logger = log.New(io.Discard, "", 0)
	scrape.RetryMax = 2
	scrape.HTTPClient.Timeout = requestTimeout

	return &Client{
		SearchURL: defaultSearchURL,
		ScrapeURL: defaultScrapeURL,
		apiKey:    apiKey,
		search:    search,
		scrape:    scrape,
	}
}

// Search fetches one page of results for a platform query.
func (c *Client) Search(ctx context.Context, query ats.SearchQuery, page int) ([]Hit, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(map[string]any{
		"q":    query.Query,
		"num":  pageSize,
		"page": page,
		"tbs":  query.Recency,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, c.search, c.SearchURL, payload)
	if err != nil {
		return nil, fmt.Errorf("serper: search %s page %d: %w", query.Origin, page, err)
	}

	var hits []Hit
	for _, r := range gjson.GetBytes(body, "organic").Array() {
		hits = append(hits, Hit{
			Title:   strings.TrimSpace(r.Get("title").String()),
			Snippet: strings.TrimSpace(r.Get("snippet").String()),
			Link:    strings.TrimSpace(r.Get("link").String()),
		})
	}
	return hits, nil
}

// Scrape fetches a single page's content as markdown and plain text.
func (c *Client) Scrape(ctx context.Context, pageURL string) (Content, error) {
	if c.apiKey == "" {
		return Content{}, ErrMissingAPIKey
	}

	payload, err := json.Marshal(map[string]any{
		"url":             pageURL,
		"includeMarkdown": true,
	})
	if err != nil {
		return Content{}, err
	}

	body, err := c.post(ctx, c.scrape, c.ScrapeURL, payload)
	if err != nil {
		return Content{}, fmt.Errorf("serper: scrape %s: %w", pageURL, err)
	}

	return Content{
		Markdown: gjson.GetBytes(body, "markdown").String(),
		Text:     gjson.GetBytes(body, "text").String(),
	}, nil
}

func (c *Client) post(ctx context.Context, client *retryablehttp.Client, url string, payload []byte) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
