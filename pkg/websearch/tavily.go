package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultBaseURL = "https://api.tavily.com"

// Result is one ranked web-search hit: title and snippet only, no raw page
// content and no synthesized answer.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Client talks to a Tavily-compatible search API. Identical queries within
// the cache TTL are served from memory.
type Client struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	HTTPClient *http.Client

	cache *gocache.Cache
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    defaultBaseURL,
		MaxResults: 3,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
	IncludeImages     bool   `json:"include_images"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search returns up to MaxResults ranked results for the query.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if cached, found := c.cache.Get(query); found {
		return cached.([]Result), nil
	}

	payload := searchRequest{
		APIKey:            c.APIKey,
		Query:             query,
		MaxResults:        c.MaxResults,
		IncludeAnswer:     false,
		IncludeRawContent: false,
		IncludeImages:     false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/search", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error: status %d, body: %s", resp.StatusCode, string(respBytes))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(respBytes, &searchResp); err != nil {
		return nil, fmt.Errorf("unmarshal search response: %w", err)
	}

	results := searchResp.Results
	if len(results) > c.MaxResults {
		results = results[:c.MaxResults]
	}

	c.cache.Set(query, results, gocache.DefaultExpiration)
	return results, nil
}
