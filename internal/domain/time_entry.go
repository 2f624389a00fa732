package domain

import "time"

// TimeEntry represents a Toggl time entry in the domain, enriched with the
// display names resolved from the workspace cache.
type TimeEntry struct {
	ID          int64
	ProjectID   *int64
	TaskID      *int64
	UserID      *int64
	Description *string
	Start       time.Time
	End         *time.Time
	Updated     *time.Time
	DurationMs  int64
	UserName    *string
	ProjectName *string
	ClientName  *string
	Billable    bool
	Currency    *string
	Tags        []string
	Running     bool // true for the in-progress entry, End is the fetch time
}

// DescriptionText returns the description or "" when unset.
func (e TimeEntry) DescriptionText() string {
	if e.Description == nil {
		return ""
	}
	return *e.Description
}
