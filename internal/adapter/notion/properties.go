package notion

import (
	"time"

	"toggl-notion-sync/internal/domain"
)

// Property names of the destination data source.
const (
	PropDescription = "description"
	PropDate        = "date"
	PropID          = "id"
	PropProject     = "project"
	PropClient      = "client"
)

// Properties is the page property set written for one time entry.
type Properties struct {
	Description TitleProperty   `json:"description"`
	Date        DateProperty    `json:"date"`
	ID          *NumberProperty `json:"id,omitempty"`
	Project     *SelectProperty `json:"project,omitempty"`
	Client      *SelectProperty `json:"client,omitempty"`
}

type TitleProperty struct {
	Title []RichText `json:"title"`
}

type RichText struct {
	Text TextContent `json:"text"`
}

type TextContent struct {
	Content string `json:"content"`
}

type DateProperty struct {
	Date DateRange `json:"date"`
}

type DateRange struct {
	Start string  `json:"start"`
	End   *string `json:"end"`
}

type NumberProperty struct {
	Number int64 `json:"number"`
}

type SelectProperty struct {
	Select SelectOption `json:"select"`
}

type SelectOption struct {
	Name string `json:"name"`
}

// CreateProperties maps an entry to the full property set of a new page,
// including the external id.
func CreateProperties(e domain.TimeEntry) Properties {
	p := UpdateProperties(e)
	p.ID = &NumberProperty{Number: e.ID}
	return p
}

// UpdateProperties maps an entry to the properties patched onto an existing
// page. The id is written once on create and never sent again.
func UpdateProperties(e domain.TimeEntry) Properties {
	p := Properties{
		Description: TitleProperty{Title: []RichText{{Text: TextContent{Content: e.DescriptionText()}}}},
		Date:        DateProperty{Date: DateRange{Start: e.Start.Format(time.RFC3339)}},
	}
	if e.End != nil {
		end := e.End.Format(time.RFC3339)
		p.Date.Date.End = &end
	}
	if e.ProjectName != nil {
		p.Project = &SelectProperty{Select: SelectOption{Name: *e.ProjectName}}
	}
	if e.ClientName != nil {
		p.Client = &SelectProperty{Select: SelectOption{Name: *e.ClientName}}
	}
	return p
}
