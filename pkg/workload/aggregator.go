package workload

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/tshalif/estimationtoolsplugin/pkg/chart"
	"github.com/tshalif/estimationtoolsplugin/pkg/macro"
	"github.com/tshalif/estimationtoolsplugin/pkg/ticket"
	log "github.com/sirupsen/logrus"
)

type CompletionReader interface {
	GetCompletion(ctx context.Context, ticketId int) (ticket.Completion, error)
}

type Aggregator struct {
	cfg Config
}

func NewAggregator(cfg Config) Aggregator {
	return Aggregator{cfg: cfg}
}

// Compute sums the remaining estimation of open tickets per owner and builds the chart. Tickets
// are expected to be filtered by the query already; closed and (with showdueonly) out of range
// tickets are dropped here.
func (a Aggregator) Compute(ctx context.Context, opts Options, tickets []ticket.Ticket, completions CompletionReader) (ChartSpec, error) {
	aggregate := NewAggregate()
	for _, t := range tickets {
		hours, include, err := a.remaining(ctx, opts, t, completions)
		if err != nil {
			if a.cfg.SkipMalformed && errors.Is(err, ErrMalformedValue) {
				log.Warnf("WorkloadChart: skipping ticket: %v", err)
				continue
			}
			return ChartSpec{}, err
		}
		if !include {
			continue
		}
		aggregate.Add(t.Owner(), hours)
	}
	return a.chartSpec(opts, aggregate), nil
}

func (a Aggregator) remaining(ctx context.Context, opts Options, t ticket.Ticket, completions CompletionReader) (float64, bool, error) {
	if slices.Contains(a.cfg.ClosedStates, t.Status()) {
		log.Debugf("WorkloadChart: ticket #%d is %s, skipped", t.Id, t.Status())
		return 0, false, nil
	}

	estimation, err := parseHours(t.Id, a.cfg.EstimationField, t.Get(a.cfg.EstimationField))
	if err != nil {
		return 0, false, err
	}
	if !opts.RemainingWorkload {
		return estimation, true, nil
	}

	completion, err := completions.GetCompletion(ctx, t.Id)
	if err != nil {
		log.Errorf("WorkloadChart: failed to load completion of ticket #%d: %v", t.Id, err)
		return 0, false, err
	}

	if opts.ShowDueOnly {
		if strings.TrimSpace(completion.DueClose) == "" {
			log.Debugf("WorkloadChart: ticket #%d has no due date, skipped", t.Id)
			return 0, false, nil
		}
		due, err := macro.ParseDate(completion.DueClose)
		if err != nil {
			return 0, false, fmt.Errorf("%w: ticket #%d due_close=%q", ErrMalformedValue, t.Id, completion.DueClose)
		}
		if opts.StartDate != nil && opts.StartDate.After(due) {
			log.Debugf("WorkloadChart: ticket #%d is due before the start date, skipped", t.Id)
			return 0, false, nil
		}
		if opts.EndDate != nil && opts.EndDate.Before(due) {
			log.Debugf("WorkloadChart: ticket #%d is due after the end date, skipped", t.Id)
			return 0, false, nil
		}
	}

	totalHours, err := parseHours(t.Id, "totalhours", completion.TotalHours)
	if err != nil {
		return 0, false, err
	}
	complete, err := parseHours(t.Id, "complete", completion.Complete)
	if err != nil {
		return 0, false, err
	}

	// the larger completion signal wins but never beyond the estimation itself
	completed := math.Min(estimation, math.Max(totalHours, complete/100*estimation))
	return estimation - completed, true, nil
}

func (a Aggregator) chartSpec(opts Options, aggregate *Aggregate) ChartSpec {
	spec := ChartSpec{
		Title:      fmt.Sprintf("Workload %s%s", FormatHours(aggregate.Total), a.cfg.EstimationSuffix),
		TitleColor: TitleColor,
		Total:      aggregate.Total,
		Color:      opts.Color,
		Width:      opts.Width,
		Height:     opts.Height,
	}

	if opts.Today != nil && opts.EndDate != nil {
		workdays := WorkdaysBetween(*opts.Today, *opts.EndDate)
		spec.WorkdaysLeft = &workdays
		spec.Title += fmt.Sprintf(" (~%d workdays left)", workdays)
	}

	workHoursPerDay := math.Max(opts.WorkHoursPerDay, 0)
	for _, owner := range aggregate.Owners() {
		hours := aggregate.ByOwner[owner]
		slice := Slice{
			Owner: owner,
			Hours: hours,
			// owners may be email addresses and the chart service is a third party
			Label: fmt.Sprintf("%s %s%s", labelOwner(owner), FormatHours(hours), a.cfg.EstimationSuffix),
			Value: strconv.Itoa(int(hours)),
		}
		if spec.WorkdaysLeft != nil {
			userRemainingHours := float64(*spec.WorkdaysLeft) * workHoursPerDay
			if userRemainingHours == 0 || hours/userRemainingHours > 1 {
				slice.Overloaded = true
				slice.Label += fmt.Sprintf(" (~%s hours left)!", FormatHours(userRemainingHours))
				spec.TitleColor = OverloadColor
			}
		}
		spec.Slices = append(spec.Slices, slice)
	}
	return spec
}

// parseHours treats an empty value as zero.
func parseHours(ticketId int, field string, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: ticket #%d %s=%q", ErrMalformedValue, ticketId, field, raw)
	}
	return v, nil
}

// labelOwner keeps "|" out of a label since chl joins labels with it.
func labelOwner(owner string) string {
	return strings.ReplaceAll(chart.ObfuscateEmail(owner), "|", "/")
}
