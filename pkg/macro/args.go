package macro

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedDate = errors.New("malformed date")
var ErrInvalidOption = errors.New("invalid option")

// DateLayouts are accepted for every date option and for the due_close field.
var DateLayouts = []string{"2006-01-02", "2006/01/02"}

// AvailableOptions are consumed by the chart macros; every other argument filters tickets.
var AvailableOptions = []string{
	"startdate", "enddate", "today",
	"width", "height", "color",
	"bgcolor", "wecolor", "weekends", "gridlines", "expected", "colorexpected", "title",
	"workhoursperday", "remainingworkload", "showdueonly",
}

// keyword matches "key=" with an optional query operator between the key and "=".
var keyword = regexp.MustCompile(`^\s*([A-Za-z_]\w*!?[~^$]?)=`)

// Args are the keyword arguments of one macro call.
type Args map[string]string

// ParseArgs splits "milestone=Sprint 1, width=600" into keyword arguments. A backslash escapes a
// comma inside a value. Positional arguments are ignored.
func ParseArgs(content string) Args {
	args := Args{}
	if strings.TrimSpace(content) == "" {
		return args
	}
	for _, part := range splitArgs(content) {
		part = strings.ReplaceAll(part, `\,`, ",")
		m := keyword.FindStringSubmatchIndex(part)
		if m == nil {
			continue
		}
		key := part[m[2]:m[3]]
		args[key] = strings.TrimSpace(part[m[1]:])
	}
	return args
}

// splitArgs splits on commas not preceded by a backslash.
func splitArgs(content string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == ',' && (i == 0 || content[i-1] != '\\') {
			parts = append(parts, content[start:i])
			start = i + 1
		}
	}
	return append(parts, content[start:])
}

// Split separates chart options from the arguments forwarded to the ticket query.
func (a Args) Split() (options Args, query map[string]string) {
	options = Args{}
	query = map[string]string{}
	for key, value := range a {
		if slices.Contains(AvailableOptions, key) {
			options[key] = value
		} else {
			query[key] = value
		}
	}
	return options, query
}

func (a Args) Int(key string, def int) (int, error) {
	raw, ok := a[key]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidOption, key, raw)
	}
	return v, nil
}

func (a Args) Float(key string, def float64) (float64, error) {
	raw, ok := a[key]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidOption, key, raw)
	}
	return v, nil
}

func (a Args) Bool(key string, def bool) bool {
	raw, ok := a[key]
	if !ok {
		return def
	}
	return ParseBool(raw)
}

func (a Args) String(key string, def string) string {
	if raw, ok := a[key]; ok {
		return raw
	}
	return def
}

var hexColor = regexp.MustCompile(`^(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Color returns an RRGGBB (or RRGGBBAA) color option.
func (a Args) Color(key string, def string) (string, error) {
	raw := a.String(key, def)
	if !hexColor.MatchString(raw) {
		return "", fmt.Errorf("%w: %s=%q is not an RRGGBB color", ErrInvalidOption, key, raw)
	}
	return raw, nil
}

// Date returns the date option or nil when absent.
func (a Args) Date(key string) (*time.Time, error) {
	raw, ok := a[key]
	if !ok || raw == "" {
		return nil, nil
	}
	d, err := ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &d, nil
}

// ParseBool treats false, f, n, 0 and the empty string (case-insensitive) as false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "f", "n", "0", "":
		return false
	}
	return true
}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}
