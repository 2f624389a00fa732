package toggl

import (
	"errors"
	"time"

	"toggl-notion-sync/internal/domain"
)

// rawReport mirrors the Reports API v2 detailed report page.
type rawReport struct {
	TotalCount int              `json:"total_count"`
	PerPage    int              `json:"per_page"`
	Data       []rawReportEntry `json:"data"`
}

type rawReportEntry struct {
	ID          int64      `json:"id"`
	PID         *int64     `json:"pid"`
	TID         *int64     `json:"tid"`
	UID         *int64     `json:"uid"`
	Description *string    `json:"description"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
	Updated     *time.Time `json:"updated"`
	Dur         int64      `json:"dur"`
	IsBillable  bool       `json:"is_billable"`
	Cur         *string    `json:"cur"`
	Tags        []string   `json:"tags"`
}

func (r rawReportEntry) toDomain() (domain.TimeEntry, error) {
	if r.ID == 0 {
		return domain.TimeEntry{}, errors.New("missing id")
	}
	if r.Start == nil {
		return domain.TimeEntry{}, errors.New("missing start")
	}
	dur := r.Dur
	if r.End != nil {
		dur = r.End.Sub(*r.Start).Milliseconds()
	}
	return domain.TimeEntry{
		ID:          r.ID,
		ProjectID:   r.PID,
		TaskID:      r.TID,
		UserID:      r.UID,
		Description: r.Description,
		Start:       *r.Start,
		End:         r.End,
		Updated:     r.Updated,
		DurationMs:  dur,
		Billable:    r.IsBillable,
		Currency:    r.Cur,
		Tags:        r.Tags,
	}, nil
}

// rawCurrent mirrors the v9 current time entry. Both the legacy short keys and
// the long keys are accepted.
type rawCurrent struct {
	ID          int64      `json:"id"`
	PID         *int64     `json:"pid"`
	TID         *int64     `json:"tid"`
	UID         *int64     `json:"uid"`
	ProjectID   *int64     `json:"project_id"`
	TaskID      *int64     `json:"task_id"`
	UserID      *int64     `json:"user_id"`
	Description *string    `json:"description"`
	Start       *time.Time `json:"start"`
	At          *time.Time `json:"at"`
	Billable    bool       `json:"billable"`
	Tags        []string   `json:"tags"`
}

func (r rawCurrent) toDomain() (domain.TimeEntry, error) {
	if r.ID == 0 {
		return domain.TimeEntry{}, errors.New("missing id")
	}
	if r.Start == nil {
		return domain.TimeEntry{}, errors.New("missing start")
	}
	return domain.TimeEntry{
		ID:          r.ID,
		ProjectID:   firstSet(r.ProjectID, r.PID),
		TaskID:      firstSet(r.TaskID, r.TID),
		UserID:      firstSet(r.UserID, r.UID),
		Description: r.Description,
		Start:       *r.Start,
		Updated:     r.At,
		Billable:    r.Billable,
		Tags:        r.Tags,
		Running:     true,
	}, nil
}

func firstSet(vals ...*int64) *int64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

type rawUser struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullname"`
	Name     string `json:"name"`
}

type rawProject struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	ClientID *int64 `json:"client_id"`
	CID      *int64 `json:"cid"`
}

type rawClient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
