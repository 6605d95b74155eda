package fdc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mealresolver"
)

const defaultEndpoint = "https://api.nal.usda.gov/fdc/v1/foods/search"

type Client struct {
	apiKey     string
	endpoint   string
	httpClient mealresolver.HTTPClient
}

type ClientOpts struct {
	APIKey     string
	Endpoint   string
	HTTPClient mealresolver.HTTPClient
}

func NewClient(opts ClientOpts) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{
		apiKey:     opts.APIKey,
		endpoint:   opts.Endpoint,
		httpClient: opts.HTTPClient,
	}
}

func (c *Client) CheckCredentials() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return mealresolver.MissingCredential("USDA_FDC_API_KEY")
	}
	return nil
}

// Search runs a foods/search query.
func (c *Client) Search(ctx context.Context, sr SearchRequest) (SearchResponse, error) {
	if err := c.CheckCredentials(); err != nil {
		return SearchResponse{}, err
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("failed to parse endpoint: %w", err)
	}

	params := reqURL.Query()
	params.Set("api_key", c.apiKey)
	params.Set("query", sr.Query)
	if sr.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(sr.PageSize))
	}
	if len(sr.DataTypes) > 0 {
		params.Set("dataType", strings.Join(sr.DataTypes, ","))
	}
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return SearchResponse{}, fmt.Errorf("FDC search failed with status %d", resp.StatusCode)
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return SearchResponse{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	slog.Debug("FDC: Search complete", "query", sr.Query, "total_hits", out.TotalHits, "returned", len(out.Foods))
	return out, nil
}
