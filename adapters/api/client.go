package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"psycdata/domain/analysis"
	"psycdata/domain/table"
	"psycdata/internal/errors"
	"psycdata/ports"
)

// Client calls a remote Server. It implements ports.Backend and
// ports.TextStore.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ ports.Backend   = (*Client)(nil)
	_ ports.TextStore = (*Client)(nil)
)

// NewClient creates a client for the server at baseURL. Calls are bounded
// only by the caller's context.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) ListSheets(ctx context.Context, path string) ([]string, error) {
	var resp SheetsResponse
	if err := c.post(ctx, RouteSheets, SheetsRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return resp.Sheets, nil
}

func (c *Client) ParseExcel(ctx context.Context, path, sheet string) (table.Table, error) {
	var t table.Table
	err := c.post(ctx, RouteExcel, SheetRequest{Path: path, Sheet: sheet}, &t)
	return t, err
}

func (c *Client) RunDescriptiveStats(ctx context.Context, path, sheet string, variables []string, sort analysis.SortOrder) (table.Table, error) {
	var t table.Table
	err := c.post(ctx, RouteDescriptive, AnalysisRequest{Path: path, Sheet: sheet, Variables: variables, Sort: sort}, &t)
	return t, err
}

func (c *Client) RunCorrelation(ctx context.Context, path, sheet string, variables []string) (table.Table, error) {
	var t table.Table
	err := c.post(ctx, RouteCorrelation, AnalysisRequest{Path: path, Sheet: sheet, Variables: variables}, &t)
	return t, err
}

func (c *Client) RunReliability(ctx context.Context, path, sheet string, variables []string, model analysis.Model) (table.Table, error) {
	var t table.Table
	err := c.post(ctx, RouteReliability, AnalysisRequest{Path: path, Sheet: sheet, Variables: variables, Model: model}, &t)
	return t, err
}

func (c *Client) SaveTextFile(ctx context.Context, path, content string) error {
	return c.post(ctx, RouteFiles, SaveRequest{Path: path, Content: content}, nil)
}

// Health checks that the server is reachable
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+RouteHealth, nil)
	if err != nil {
		return errors.IOError("failed to build request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.IOError("backend unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.IOError(fmt.Sprintf("backend health check returned status %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) post(ctx context.Context, route string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return errors.IOError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.IOError("backend request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.IOError("failed to read response", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			code := e.Code
			if code == "" || code == "UNKNOWN" {
				code = errors.CodeIO
			}
			return errors.New(code, e.Error)
		}
		return errors.IOError(fmt.Sprintf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))), nil)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.ParseError("failed to decode response", err)
	}
	return nil
}
