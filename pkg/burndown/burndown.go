package burndown

import (
	"fmt"
	"strings"
	"time"

	"github.com/tshalif/estimationtoolsplugin/pkg/macro"
)

const (
	MacroName = "BurndownChart"
	ChartName = "Burndown Chart"
)

var ErrNoStartDate = fmt.Errorf("%w: no start date specified", macro.ErrInvalidOption)
var ErrEmptyTimeFrame = fmt.Errorf("%w: time frame needs at least two charted days", macro.ErrInvalidOption)

type Config struct {
	EstimationField string
	ClosedStates    []string
}

type Options struct {
	Width         int
	Height        int
	Color         string
	ColorExpected string
	BgColor       string
	WeColor       string
	Weekends      bool
	// Expected draws the ideal progress line from this many hours down to zero; 0 disables it.
	Expected float64
	// Gridlines is the hour step of horizontal grid lines; 0 disables them.
	Gridlines float64
	Title     string
	StartDate time.Time
	EndDate   time.Time
	Today     time.Time
}

func DefaultOptions() Options {
	return Options{
		Width:         800,
		Height:        200,
		Color:         "ff9900",
		ColorExpected: "ffddaa",
		BgColor:       "ffffff00",
		WeColor:       "ccccccaa",
		Weekends:      true,
	}
}

// ParseOptions requires a start date. The time frame covers at least one day after it.
func ParseOptions(args macro.Args, dates macro.Dates) (Options, error) {
	opts := DefaultOptions()
	if dates.Start == nil {
		return Options{}, ErrNoStartDate
	}

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
	if opts.ColorExpected, err = args.Color("colorexpected", opts.ColorExpected); err != nil {
		return Options{}, err
	}
	if opts.BgColor, err = args.Color("bgcolor", opts.BgColor); err != nil {
		return Options{}, err
	}
	if opts.WeColor, err = args.Color("wecolor", opts.WeColor); err != nil {
		return Options{}, err
	}
	if opts.Expected, err = args.Float("expected", opts.Expected); err != nil {
		return Options{}, err
	}
	if opts.Gridlines, err = args.Float("gridlines", opts.Gridlines); err != nil {
		return Options{}, err
	}
	opts.Weekends = args.Bool("weekends", opts.Weekends)

	opts.Title = args.String("title", "")
	if opts.Title == "" && args["milestone"] != "" {
		opts.Title = strings.Split(args["milestone"], "|")[0]
	}
	if opts.Title == "" {
		opts.Title = ChartName
	}

	opts.StartDate = *dates.Start
	opts.EndDate = dates.End
	opts.Today = dates.Today
	if !opts.StartDate.Before(opts.EndDate) {
		opts.EndDate = opts.StartDate.AddDate(0, 0, 1)
	}
	return opts, nil
}
