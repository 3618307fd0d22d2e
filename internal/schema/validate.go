// Package schema parses raw model output into an itinerary and reports
// structural problems in a form that can be fed back to the model.
package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tripplanner/itinerary-service/internal/model"
)

// ErrInvalidJSON is the summary reported when the payload does not parse.
const ErrInvalidJSON = "Invalid JSON"

// Hours 1-12, minutes 00-59, optional space, AM or PM.
var timeRx = regexp.MustCompile(`(?i)^(0?[1-9]|1[0-2]):[0-5][0-9]\s*(AM|PM)$`)

// Issue is one field-level problem.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	p := i.Path
	if p == "" {
		p = "(root)"
	}
	return p + ": " + i.Message
}

// Result is the outcome of validating one model response. Exactly one of
// Output (when OK) or Error/Issues (when not OK) is meaningful.
type Result struct {
	OK     bool
	Output *model.ItineraryOutput
	Error  string
	Issues []Issue
}

// Validate strips fences, parses the JSON and checks it against the
// itinerary shape. Malformed input is a normal failed Result, never a panic.
func Validate(raw string) Result {
	doc, ok := decode(raw)
	if !ok {
		return Result{Error: ErrInvalidJSON}
	}
	w := &walker{}
	out := w.itinerary(doc)
	if len(w.issues) > 0 {
		return failed(w.issues)
	}
	return Result{OK: true, Output: out}
}

func failed(issues []Issue) Result {
	lines := make([]string, len(issues))
	for i, is := range issues {
		lines[i] = is.String()
	}
	return Result{Error: strings.Join(lines, "\n"), Issues: issues}
}

func decode(raw string) (interface{}, bool) {
	dec := json.NewDecoder(strings.NewReader(StripCodeFence(raw)))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, false
	}
	// trailing data after the first value is not valid JSON
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return doc, true
}

type walker struct {
	issues []Issue
}

func (w *walker) fail(path, format string, args ...interface{}) {
	w.issues = append(w.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func join(path string, key interface{}) string {
	var k string
	switch v := key.(type) {
	case int:
		k = strconv.Itoa(v)
	default:
		k = fmt.Sprint(v)
	}
	if path == "" {
		return k
	}
	return path + "." + k
}

func kind(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	}
	return "unknown"
}

func (w *walker) object(path string, v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		w.fail(path, "expected object, received %s", kind(v))
	}
	return m, ok
}

func (w *walker) array(path string, v interface{}, min, max int) ([]interface{}, bool) {
	a, ok := v.([]interface{})
	if !ok {
		w.fail(path, "expected array, received %s", kind(v))
		return nil, false
	}
	if len(a) < min {
		w.fail(path, "array must contain at least %d element(s)", min)
	}
	if max >= 0 && len(a) > max {
		w.fail(path, "array must contain at most %d element(s)", max)
	}
	return a, true
}

func (w *walker) str(path string, v interface{}, min, max int) string {
	s, ok := v.(string)
	if !ok {
		w.fail(path, "expected string, received %s", kind(v))
		return ""
	}
	n := utf8.RuneCountInString(s)
	if n < min {
		w.fail(path, "string must contain at least %d character(s)", min)
	}
	if max >= 0 && n > max {
		w.fail(path, "string must contain at most %d character(s)", max)
	}
	return s
}

func (w *walker) num(path string, v interface{}, min float64) float64 {
	n, ok := v.(json.Number)
	if !ok {
		w.fail(path, "expected number, received %s", kind(v))
		return 0
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		w.fail(path, "number out of range")
		return 0
	}
	if f < min {
		w.fail(path, "number must be greater than or equal to %s", strconv.FormatFloat(min, 'f', -1, 64))
	}
	return f
}

func (w *walker) integer(path string, v interface{}, min int) int {
	before := len(w.issues)
	f := w.num(path, v, float64(min))
	if len(w.issues) > before {
		return 0
	}
	if f != math.Trunc(f) {
		w.fail(path, "expected integer, received float")
		return 0
	}
	if f > math.MaxInt32 {
		w.fail(path, "number out of range")
		return 0
	}
	return int(f)
}

func (w *walker) itinerary(doc interface{}) *model.ItineraryOutput {
	root, ok := w.object("", doc)
	if !ok {
		return nil
	}
	out := &model.ItineraryOutput{}
	if days, ok := w.array("itinerary", root["itinerary"], 0, -1); ok {
		out.Itinerary = make([]model.DayItinerary, 0, len(days))
		for i, d := range days {
			out.Itinerary = append(out.Itinerary, w.day(join("itinerary", i), d))
		}
	}
	out.TotalEstimatedCost = w.num("total_estimated_cost", root["total_estimated_cost"], 0)
	return out
}

func (w *walker) day(path string, v interface{}) model.DayItinerary {
	var d model.DayItinerary
	m, ok := w.object(path, v)
	if !ok {
		return d
	}
	d.Day = w.integer(join(path, "day"), m["day"], 1)
	d.Title = w.str(join(path, "title"), m["title"], 1, MaxTitleLen)
	if acts, ok := w.array(join(path, "activities"), m["activities"], MinActivities, MaxActivities); ok {
		d.Activities = make([]model.Activity, 0, len(acts))
		for i, a := range acts {
			d.Activities = append(d.Activities, w.activity(join(join(path, "activities"), i), a))
		}
	}
	d.EstimatedCost = w.num(join(path, "estimated_cost"), m["estimated_cost"], 0)
	if tips, ok := w.array(join(path, "tips"), m["tips"], 0, MaxTips); ok {
		d.Tips = make([]string, 0, len(tips))
		for i, t := range tips {
			d.Tips = append(d.Tips, w.str(join(join(path, "tips"), i), t, 0, MaxTipLen))
		}
	}
	return d
}

func (w *walker) activity(path string, v interface{}) model.Activity {
	var a model.Activity
	m, ok := w.object(path, v)
	if !ok {
		return a
	}
	tp := join(path, "time")
	before := len(w.issues)
	a.Time = w.str(tp, m["time"], 0, -1)
	if len(w.issues) == before && !timeRx.MatchString(a.Time) {
		w.fail(tp, `Time must be like "09:00 AM"`)
	}
	a.Name = w.str(join(path, "name"), m["name"], 1, MaxNameLen)
	a.Description = w.str(join(path, "description"), m["description"], 1, MaxDescriptionLen)
	a.Location = w.str(join(path, "location"), m["location"], 1, MaxLocationLen)
	a.Cost = w.num(join(path, "cost"), m["cost"], 0)
	a.Duration = w.str(join(path, "duration"), m["duration"], 1, MaxDurationLen)
	return a
}
