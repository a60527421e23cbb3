package burndown

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ChartSpec is a burndown line chart scaled to 0-100 on both axes.
type ChartSpec struct {
	Dates    []time.Time
	XData    []float64
	YData    []string
	MaxHours float64
	Options  Options
}

// Scale maps the timetable onto the chart area. Days after today are not drawn.
func Scale(tt Timetable, opts Options) (ChartSpec, error) {
	dates := tt.Dates()
	if len(dates) < 2 {
		return ChartSpec{}, ErrEmptyTimeFrame
	}

	maxHours := opts.Expected
	for _, hours := range tt {
		maxHours = math.Max(maxHours, hours)
	}
	if maxHours <= 0 {
		maxHours = 100
	}

	spec := ChartSpec{Dates: dates, MaxHours: maxHours, Options: opts}
	for i, d := range dates {
		spec.XData = append(spec.XData, round(float64(i)*100/float64(len(dates)-1), 2))
		if d.After(opts.Today) {
			spec.YData = append(spec.YData, "-1")
		} else {
			spec.YData = append(spec.YData, format(round(tt[d]*100/maxHours, 2), 2))
		}
	}
	return spec, nil
}

// Params returns the chart service arguments of an xy line chart.
func (c ChartSpec) Params() url.Values {
	opts := c.Options
	params := url.Values{
		"chs":  {fmt.Sprintf("%dx%d", opts.Width, opts.Height)},
		"chf":  {fmt.Sprintf("c,s,%s|bg,s,00000000", opts.BgColor)},
		"chd":  {fmt.Sprintf("t:%s|%s%s", strings.Join(c.xStrings(), ","), strings.Join(c.YData, ","), c.expectedData())},
		"cht":  {"lxy"},
		"chxt": {"x,x,y"},
		"chxl": {c.bottomAxis()},
		"chxr": {"2,0," + strconv.FormatFloat(round(c.MaxHours, 4), 'f', -1, 64)},
		"chm":  {strings.Join(c.weekendMarkers(), "|")},
		"chg":  {c.gridlines()},
		"chco": {opts.Color + "," + opts.ColorExpected},
	}
	if opts.Title != "" {
		params.Set("chtt", opts.Title)
	}
	return params
}

func (c ChartSpec) xStrings() []string {
	xs := make([]string, len(c.XData))
	for i, x := range c.XData {
		xs[i] = format(x, 2)
	}
	return xs
}

// bottomAxis labels every day and the first and last month.
func (c ChartSpec) bottomAxis() string {
	days := make([]string, len(c.Dates))
	for i, d := range c.Dates {
		days[i] = strconv.Itoa(d.Day())
	}
	first, last := c.Dates[0], c.Dates[len(c.Dates)-1]
	return fmt.Sprintf("0:|%s|1:|%d/%d|%d/%d", strings.Join(days, "|"),
		int(first.Month()), first.Year(), int(last.Month()), last.Year())
}

func (c ChartSpec) expectedData() string {
	if c.Options.Expected == 0 {
		return ""
	}
	return fmt.Sprintf("|0,100|%s,0", format(round(c.Options.Expected*100/c.MaxHours, 2), 2))
}

func (c ChartSpec) gridlines() string {
	if c.Options.Gridlines == 0 {
		// top and right bounding lines
		return "100.0,100.0,1,0"
	}
	return fmt.Sprintf("%s,%s", format(c.XData[1], 2), format(round(c.Options.Gridlines*100/c.MaxHours, 4), 4))
}

// weekendMarkers shades every Saturday and Sunday pair, plus a leading Sunday and a trailing Saturday.
func (c ChartSpec) weekendMarkers() []string {
	var markers []string
	halfDay := round(0.5/float64(len(c.Dates)-1), 2)
	saturday := -1
	for i, d := range c.Dates {
		if d.Weekday() == time.Saturday {
			saturday = i
		}
		if saturday >= 0 && d.Weekday() == time.Sunday {
			markers = append(markers, fmt.Sprintf("R,%s,0,%s,%s", c.Options.WeColor,
				format(round(c.XData[saturday]/100-halfDay, 2), 2),
				format(round(c.XData[i]/100+halfDay, 2), 2)))
			saturday = -1
		}
	}
	if c.Dates[0].Weekday() == time.Sunday {
		markers = append(markers, fmt.Sprintf("R,%s,0,0.0,%s", c.Options.WeColor, format(halfDay, 2)))
	}
	if c.Dates[len(c.Dates)-1].Weekday() == time.Saturday {
		markers = append(markers, fmt.Sprintf("R,%s,0,%s,1.0", c.Options.WeColor, format(1-halfDay, 2)))
	}
	return markers
}

// round rounds half away from zero to the given number of decimals.
func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func format(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
