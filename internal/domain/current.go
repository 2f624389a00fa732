package domain

// Presence describes the outcome of a best-effort lookup.
type Presence int

const (
	Absent Presence = iota
	Present
	Failed
)

func (p Presence) String() string {
	switch p {
	case Present:
		return "present"
	case Failed:
		return "failed"
	default:
		return "absent"
	}
}

// CurrentEntry is the result of fetching the in-progress entry. Entry is only
// meaningful when State is Present; Err only when State is Failed.
type CurrentEntry struct {
	State Presence
	Entry TimeEntry
	Err   error
}

// Get returns the entry and whether one is present.
func (c CurrentEntry) Get() (TimeEntry, bool) {
	return c.Entry, c.State == Present
}

// ReportPage is one page of completed entries from the reports endpoint.
type ReportPage struct {
	Entries    []TimeEntry
	TotalCount int
	PerPage    int
}
