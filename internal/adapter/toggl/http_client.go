package toggl

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"toggl-notion-sync/internal/adapter/httpapi"
	"toggl-notion-sync/internal/domain"
)

const (
	DefaultBaseURL    = "https://api.track.toggl.com"
	DefaultUserAgent  = "toggl-sync-script"
	PageSize          = 50
	reportsDetailPath = "/reports/api/v2/details"
)

// Config carries what the client needs to reach one workspace.
type Config struct {
	BaseURL     string // v9 API, default https://api.track.toggl.com
	ReportsURL  string // reports API, defaults to BaseURL
	APIToken    string
	WorkspaceID int64
	UserAgent   string
}

// Client implements ports.TogglClient using the Toggl Reports API v2 and
// the Track API v9.
type Client struct {
	api        *httpapi.Client
	baseURL    string
	reportsURL string
	workspace  int64
	userAgent  string
	log        *slog.Logger
}

func NewClient(cfg Config, log *slog.Logger, opts ...httpapi.Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ReportsURL == "" {
		cfg.ReportsURL = cfg.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	// Basic auth: token:api_token
	auth := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", cfg.APIToken, "api_token")))
	h := http.Header{}
	h.Set("Authorization", "Basic "+auth)
	return &Client{
		api:        httpapi.New("toggl", h, log, opts...),
		baseURL:    cfg.BaseURL,
		reportsURL: cfg.ReportsURL,
		workspace:  cfg.WorkspaceID,
		userAgent:  cfg.UserAgent,
		log:        log,
	}
}

// ReportPage fetches one page of detailed report entries for the dates
// covered by w. Pages are 1-based.
// Reports v2: GET /reports/api/v2/details?workspace_id=&since=&until=&page=&per_page=50
func (c *Client) ReportPage(ctx context.Context, w domain.Window, page int) (domain.ReportPage, error) {
	base, err := url.Parse(c.reportsURL)
	if err != nil {
		return domain.ReportPage{}, err
	}
	u := base.JoinPath(reportsDetailPath)
	q := u.Query()
	q.Set("workspace_id", strconv.FormatInt(c.workspace, 10))
	q.Set("since", w.Start.UTC().Format(time.DateOnly))
	q.Set("until", w.End.UTC().Format(time.DateOnly))
	q.Set("user_agent", c.userAgent)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(PageSize))
	u.RawQuery = q.Encode()

	var raw rawReport
	if err := c.api.Do(ctx, http.MethodGet, u.String(), nil, &raw); err != nil {
		return domain.ReportPage{}, err
	}
	if raw.TotalCount < 0 {
		return domain.ReportPage{}, fmt.Errorf("%w: toggl: negative total_count %d", httpapi.ErrMalformedResponse, raw.TotalCount)
	}
	out := domain.ReportPage{
		Entries:    make([]domain.TimeEntry, 0, len(raw.Data)),
		TotalCount: raw.TotalCount,
		PerPage:    raw.PerPage,
	}
	for i, r := range raw.Data {
		e, err := r.toDomain()
		if err != nil {
			return domain.ReportPage{}, fmt.Errorf("%w: toggl: page %d item %d: %v", httpapi.ErrMalformedResponse, page, i, err)
		}
		out.Entries = append(out.Entries, e)
	}
	return out, nil
}

// CurrentEntry fetches the running entry, if any. It never returns an error:
// failures are reported through the Failed state.
// Toggl v9: GET /api/v9/me/time_entries/current
func (c *Client) CurrentEntry(ctx context.Context) domain.CurrentEntry {
	var raw *rawCurrent
	if err := c.api.Do(ctx, http.MethodGet, c.baseURL+"/api/v9/me/time_entries/current", nil, &raw); err != nil {
		return domain.CurrentEntry{State: domain.Failed, Err: err}
	}
	if raw == nil {
		return domain.CurrentEntry{State: domain.Absent}
	}
	e, err := raw.toDomain()
	if err != nil {
		return domain.CurrentEntry{State: domain.Failed, Err: fmt.Errorf("%w: toggl: current entry: %v", httpapi.ErrMalformedResponse, err)}
	}
	return domain.CurrentEntry{State: domain.Present, Entry: e}
}

// Workspace loads users, projects and clients of the configured workspace
// into a lookup cache. Any failure is returned.
func (c *Client) Workspace(ctx context.Context) (*domain.WorkspaceCache, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	clients, err := c.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch clients: %w", err)
	}
	c.log.Debug("workspace metadata loaded",
		slog.Int("users", len(users)),
		slog.Int("projects", len(projects)),
		slog.Int("clients", len(clients)),
	)
	return domain.NewWorkspaceCache(users, projects, clients), nil
}

// ListUsers fetches the members of the workspace.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var raw []rawUser
	if err := c.api.Do(ctx, http.MethodGet, c.workspacePath("users"), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(raw))
	for _, u := range raw {
		name := u.FullName
		if name == "" {
			name = u.Name
		}
		out = append(out, domain.User{ID: u.ID, FullName: name})
	}
	return out, nil
}

// ListProjects fetches the projects of the workspace.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var raw []rawProject
	if err := c.api.Do(ctx, http.MethodGet, c.workspacePath("projects"), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(raw))
	for _, p := range raw {
		clientID := p.ClientID
		if clientID == nil {
			clientID = p.CID
		}
		out = append(out, domain.Project{
			ID:       p.ID,
			Name:     p.Name,
			Color:    p.Color,
			ClientID: clientID,
		})
	}
	return out, nil
}

// ListClients fetches the clients of the workspace.
func (c *Client) ListClients(ctx context.Context) ([]domain.Client, error) {
	var raw []rawClient
	if err := c.api.Do(ctx, http.MethodGet, c.workspacePath("clients"), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Client, 0, len(raw))
	for _, cl := range raw {
		out = append(out, domain.Client{ID: cl.ID, Name: cl.Name})
	}
	return out, nil
}

func (c *Client) workspacePath(resource string) string {
	return fmt.Sprintf("%s/api/v9/workspaces/%d/%s", c.baseURL, c.workspace, resource)
}
