package ticket

import "time"

// StandardFields are the ticket columns stored directly on the ticket table.
var StandardFields = []string{
	"type",
	"component",
	"severity",
	"priority",
	"owner",
	"reporter",
	"cc",
	"version",
	"milestone",
	"status",
	"resolution",
	"summary",
	"description",
	"keywords",
}

type Ticket struct {
	Id      int
	Created time.Time
	// Values holds standard and custom field values, empty when unset.
	Values map[string]string
}

func (t Ticket) Get(field string) string {
	return t.Values[field]
}

func (t Ticket) Status() string {
	return t.Values["status"]
}

func (t Ticket) Owner() string {
	return t.Values["owner"]
}

// Completion is the auxiliary progress data kept in custom fields.
type Completion struct {
	TotalHours string
	Complete   string
	DueClose   string
}

type Change struct {
	Field    string
	Time     time.Time
	OldValue string
	NewValue string
}

type Milestone struct {
	Name      string
	Due       *time.Time
	Completed *time.Time
}

// fromMicros converts a stored timestamp (microseconds since epoch) to UTC time.
func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
