package notion

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"toggl-notion-sync/internal/adapter/httpapi"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2025-09-03"
)

// Config identifies the integration and the data source rows are written to.
type Config struct {
	BaseURL      string
	Version      string
	Token        string
	DataSourceID string
}

// Client implements ports.Destination against the Notion data source API.
type Client struct {
	api          *httpapi.Client
	baseURL      string
	dataSourceID string
	log          *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger, opts ...httpapi.Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+cfg.Token)
	h.Set("Notion-Version", cfg.Version)
	return &Client{
		api:          httpapi.New("notion", h, log, opts...),
		baseURL:      cfg.BaseURL,
		dataSourceID: cfg.DataSourceID,
		log:          log,
	}
}

type queryRequest struct {
	Filter queryFilter `json:"filter"`
	Sorts  []querySort `json:"sorts"`
}

type queryFilter struct {
	Or []numberFilter `json:"or"`
}

type numberFilter struct {
	Property string          `json:"property"`
	Number   numberCondition `json:"number"`
}

type numberCondition struct {
	Equals int64 `json:"equals"`
}

type querySort struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

type queryResponse struct {
	Results []page `json:"results"`
}

type page struct {
	ID string `json:"id"`
}

type createRequest struct {
	Parent     parent     `json:"parent"`
	Properties Properties `json:"properties"`
}

type parent struct {
	DataSourceID string `json:"data_source_id"`
}

type updateRequest struct {
	Properties Properties `json:"properties"`
}

// FindPageByEntryID returns the id of the first page whose id property equals
// entryID, ordered by date ascending, or "" when none exists.
func (c *Client) FindPageByEntryID(ctx context.Context, entryID int64) (string, error) {
	body := queryRequest{
		Filter: queryFilter{Or: []numberFilter{{Property: PropID, Number: numberCondition{Equals: entryID}}}},
		Sorts:  []querySort{{Property: PropDate, Direction: "ascending"}},
	}
	var resp queryResponse
	u := fmt.Sprintf("%s/v1/data_sources/%s/query", c.baseURL, url.PathEscape(c.dataSourceID))
	if err := c.api.Do(ctx, http.MethodPost, u, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	if len(resp.Results) > 1 {
		c.log.Warn("multiple pages share an entry id, using the first",
			slog.Int64("entry_id", entryID),
			slog.Int("matches", len(resp.Results)),
		)
	}
	if resp.Results[0].ID == "" {
		return "", fmt.Errorf("%w: notion: query result without id", httpapi.ErrMalformedResponse)
	}
	return resp.Results[0].ID, nil
}

// CreatePage creates a row under the configured data source and returns its id.
func (c *Client) CreatePage(ctx context.Context, props Properties) (string, error) {
	body := createRequest{
		Parent:     parent{DataSourceID: c.dataSourceID},
		Properties: props,
	}
	// A create that timed out may still have landed, so it is never repeated
	// here; the caller looks the entry up again before another attempt.
	var created page
	if err := c.api.Do(ctx, http.MethodPost, c.baseURL+"/v1/pages", body, &created, httpapi.NoRetry()); err != nil {
		return "", err
	}
	return created.ID, nil
}

// UpdatePage patches the given properties onto an existing page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, props Properties) error {
	u := fmt.Sprintf("%s/v1/pages/%s", c.baseURL, url.PathEscape(pageID))
	return c.api.Do(ctx, http.MethodPatch, u, updateRequest{Properties: props}, nil)
}
