package macro

import (
	"context"
	"strings"
	"time"

	"github.com/tshalif/estimationtoolsplugin/internal/utils"
	"github.com/tshalif/estimationtoolsplugin/pkg/ticket"
	log "github.com/sirupsen/logrus"
)

type MilestoneReader interface {
	GetMilestone(ctx context.Context, name string) (ticket.Milestone, error)
}

// Dates is the resolved time frame of a chart.
type Dates struct {
	Start *time.Time
	End   time.Time
	Today time.Time
}

// ResolveDates reads startdate, enddate and today from the arguments. Without an enddate the first
// milestone's completion date is used, then its due date unless that is in the past, then today.
func ResolveDates(ctx context.Context, args Args, milestones MilestoneReader, clock utils.Clock) (Dates, error) {
	today := utils.Today(clock)
	dates := Dates{Today: today}

	if d, err := args.Date("today"); err != nil {
		return Dates{}, err
	} else if d != nil {
		dates.Today = *d
	}

	start, err := args.Date("startdate")
	if err != nil {
		return Dates{}, err
	}
	dates.Start = start

	end, err := args.Date("enddate")
	if err != nil {
		return Dates{}, err
	}

	if end == nil && args["milestone"] != "" {
		name := strings.Split(args["milestone"], "|")[0]
		milestone, err := milestones.GetMilestone(ctx, name)
		if err != nil {
			return Dates{}, err
		}
		if milestone.Completed != nil {
			d := utils.DateOf(*milestone.Completed)
			end = &d
		} else if milestone.Due != nil {
			due := utils.DateOf(*milestone.Due)
			if !due.Before(today) {
				end = &due
			}
		}
		log.Debugf("end date from milestone %s: %v", name, end)
	}

	if end != nil {
		dates.End = *end
	} else {
		dates.End = today
	}
	return dates, nil
}
