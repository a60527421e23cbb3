package workload

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tshalif/estimationtoolsplugin/pkg/macro"
)

const (
	MacroName  = "WorkloadChart"
	ChartName  = "Workload Chart"
	TitleColor = "000000"
	// OverloadColor replaces TitleColor when at least one owner has more work than hours left.
	OverloadColor = "FF0000"
)

var ErrMalformedValue = errors.New("malformed ticket value")

type Config struct {
	EstimationField  string
	ClosedStates     []string
	EstimationSuffix string
	// SkipMalformed skips tickets with unparseable values instead of failing the whole chart.
	SkipMalformed bool
}

type Options struct {
	Width             int
	Height            int
	Color             string
	WorkHoursPerDay   float64
	RemainingWorkload bool
	ShowDueOnly       bool
	StartDate         *time.Time
	EndDate           *time.Time
	Today             *time.Time
}

func DefaultOptions() Options {
	return Options{
		Width:           400,
		Height:          100,
		Color:           "ff9900",
		WorkHoursPerDay: 8,
	}
}

// ParseOptions reads the chart options of one macro call on top of DefaultOptions.
func ParseOptions(args macro.Args, dates macro.Dates) (Options, error) {
	opts := DefaultOptions()
	var err error
	if opts.Width, err = args.Int("width", opts.Width); err != nil {
		return Options{}, err
	}
	if opts.Height, err = args.Int("height", opts.Height); err != nil {
		return Options{}, err
	}
	if opts.Color, err = args.Color("color", opts.Color); err != nil {
		return Options{}, err
	}
	if opts.WorkHoursPerDay, err = args.Float("workhoursperday", opts.WorkHoursPerDay); err != nil {
		return Options{}, err
	}
	opts.RemainingWorkload = args.Bool("remainingworkload", false)
	opts.ShowDueOnly = args.Bool("showdueonly", false)

	opts.StartDate = dates.Start
	end, today := dates.End, dates.Today
	opts.EndDate = &end
	opts.Today = &today
	return opts, nil
}

// Aggregate sums remaining hours per owner.
type Aggregate struct {
	Total   float64
	ByOwner map[string]float64
}

func NewAggregate() *Aggregate {
	return &Aggregate{ByOwner: make(map[string]float64)}
}

func (a *Aggregate) Add(owner string, hours float64) {
	a.Total += hours
	a.ByOwner[owner] += hours
}

func (a *Aggregate) Owners() []string {
	owners := make([]string, 0, len(a.ByOwner))
	for owner := range a.ByOwner {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners
}

// Slice is one owner's share of the pie. Label and Value of a slice always belong together.
type Slice struct {
	Owner      string
	Hours      float64
	Label      string
	Value      string
	Overloaded bool
}

type ChartSpec struct {
	Title        string
	TitleColor   string
	Total        float64
	WorkdaysLeft *int
	Slices       []Slice
	Color        string
	Width        int
	Height       int
}

func (c ChartSpec) Labels() []string {
	labels := make([]string, len(c.Slices))
	for i, s := range c.Slices {
		labels[i] = s.Label
	}
	return labels
}

func (c ChartSpec) Values() []string {
	values := make([]string, len(c.Slices))
	for i, s := range c.Slices {
		values[i] = s.Value
	}
	return values
}

// Params returns the chart service arguments of a 3D pie chart.
func (c ChartSpec) Params() url.Values {
	return url.Values{
		"chs":  {fmt.Sprintf("%dx%d", c.Width, c.Height)},
		"chf":  {"bg,s,00000000"},
		"chd":  {"t:" + strings.Join(c.Values(), ",")},
		"cht":  {"p3"},
		"chtt": {c.Title},
		"chts": {c.TitleColor},
		"chl":  {strings.Join(c.Labels(), "|")},
		"chco": {c.Color},
	}
}

// WorkdaysBetween counts Monday to Friday dates from from through to, both inclusive.
func WorkdaysBetween(from, to time.Time) int {
	days := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}

// FormatHours rounds to two decimals and prints the shortest form, "60" rather than "60.00".
func FormatHours(hours float64) string {
	return strconv.FormatFloat(math.Round(hours*100)/100, 'g', 6, 64)
}
