package domain

// User is a workspace member.
type User struct {
	ID       int64
	FullName string
}

// Project represents a Toggl project in the domain layer.
type Project struct {
	ID       int64
	Name     string
	Color    string
	ClientID *int64
}

// Client is a Toggl client a project may belong to.
type Client struct {
	ID   int64
	Name string
}

// WorkspaceCache holds the run-scoped lookup tables used to enrich entries.
// It is built once per run and only read afterwards.
type WorkspaceCache struct {
	users    map[int64]User
	projects map[int64]Project
	clients  map[int64]Client
}

// NewWorkspaceCache indexes the given metadata by id. Later duplicates win.
func NewWorkspaceCache(users []User, projects []Project, clients []Client) *WorkspaceCache {
	c := &WorkspaceCache{
		users:    make(map[int64]User, len(users)),
		projects: make(map[int64]Project, len(projects)),
		clients:  make(map[int64]Client, len(clients)),
	}
	for _, u := range users {
		c.users[u.ID] = u
	}
	for _, p := range projects {
		c.projects[p.ID] = p
	}
	for _, cl := range clients {
		c.clients[cl.ID] = cl
	}
	return c
}

// Size returns the number of cached users, projects and clients.
func (c *WorkspaceCache) Size() (users, projects, clients int) {
	if c == nil {
		return 0, 0, 0
	}
	return len(c.users), len(c.projects), len(c.clients)
}

// Enrich returns a copy of e with user, project and client names resolved.
// Any id that is unset or missing from the cache leaves the name nil.
func (c *WorkspaceCache) Enrich(e TimeEntry) TimeEntry {
	e.UserName = nil
	e.ProjectName = nil
	e.ClientName = nil
	if c == nil {
		return e
	}
	if e.UserID != nil {
		if u, ok := c.users[*e.UserID]; ok {
			e.UserName = nonEmpty(u.FullName)
		}
	}
	if e.ProjectID == nil {
		return e
	}
	p, ok := c.projects[*e.ProjectID]
	if !ok {
		return e
	}
	e.ProjectName = nonEmpty(p.Name)
	if p.ClientID != nil {
		if cl, ok := c.clients[*p.ClientID]; ok {
			e.ClientName = nonEmpty(cl.Name)
		}
	}
	return e
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
