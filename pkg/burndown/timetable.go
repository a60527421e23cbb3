package burndown

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tshalif/estimationtoolsplugin/internal/utils"
	"github.com/tshalif/estimationtoolsplugin/pkg/ticket"
)

type HistoryReader interface {
	GetChanges(ctx context.Context, ticketId int, fields ...string) ([]ticket.Change, error)
}

// Timetable maps each day of the chart to the open estimated effort on that day.
type Timetable map[time.Time]float64

func NewTimetable(start, end time.Time) Timetable {
	tt := Timetable{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		tt[d] = 0
	}
	return tt
}

func (tt Timetable) Dates() []time.Time {
	dates := make([]time.Time, 0, len(tt))
	for d := range tt {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func (tt Timetable) RemoveWeekends() {
	for d := range tt {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			delete(tt, d)
		}
	}
}

// Add replays the estimation and status history of a ticket from its creation onwards. Days
// on which the ticket was closed count as zero.
func (tt Timetable) Add(ctx context.Context, cfg Config, opts Options, t ticket.Ticket, history HistoryReader) error {
	changes, err := history.GetChanges(ctx, t.Id, cfg.EstimationField, "status")
	if err != nil {
		return err
	}

	creationDate := utils.DateOf(t.Created)
	latestEstimate, ok := castEstimate(t.Get(cfg.EstimationField))
	if !ok {
		latestEstimate = 0
	}

	// the latest change of a day wins
	estimateHistory := map[time.Time]float64{}
	statusHistory := map[time.Time]string{}
	var earliestEstimate *float64
	var earliestStatus *string

	for _, change := range changes {
		day := utils.DateOf(change.Time)
		switch change.Field {
		case cfg.EstimationField:
			if v, ok := castEstimate(change.NewValue); ok {
				estimateHistory[day] = v
			}
			if earliestEstimate == nil {
				if v, ok := castEstimate(change.OldValue); ok {
					earliestEstimate = &v
				}
			}
		case "status":
			statusHistory[day] = change.NewValue
			if earliestStatus == nil {
				old := change.OldValue
				earliestStatus = &old
			}
		}
	}

	if _, ok := estimateHistory[creationDate]; !ok {
		if earliestEstimate != nil {
			estimateHistory[creationDate] = *earliestEstimate
		} else {
			estimateHistory[creationDate] = latestEstimate
		}
	}
	if _, ok := statusHistory[creationDate]; !ok {
		if earliestStatus != nil {
			statusHistory[creationDate] = *earliestStatus
		} else {
			statusHistory[creationDate] = t.Status()
		}
	}

	// start at creation, the ticket may have changed before the chart starts
	currentEstimate := 0.0
	isOpen := false
	for d := creationDate; !d.After(opts.EndDate); d = d.AddDate(0, 0, 1) {
		if status, ok := statusHistory[d]; ok {
			isOpen = !slices.Contains(cfg.ClosedStates, status)
		}
		if estimate, ok := estimateHistory[d]; ok {
			currentEstimate = estimate
		}
		if !d.Before(opts.StartDate) && isOpen {
			if _, charted := tt[d]; charted {
				tt[d] += currentEstimate
			}
		}
	}
	return nil
}

// castEstimate reads empty values as zero and reports false for values that are not numbers.
func castEstimate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
