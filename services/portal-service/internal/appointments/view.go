package appointments

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	FilterAll      = "all"
	FilterUpcoming = "upcoming"
	FilterPast     = "past"
)

type SortKey string

const (
	SortByDate   SortKey = "date"
	SortByDoctor SortKey = "doctor"
	SortByStatus SortKey = "status"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter keeps upcoming (date after now) or past (date before now) entries,
// or entries whose status matches selection case-insensitively. "all" and ""
// keep everything.
func Filter(list []Appointment, selection string, now time.Time) []Appointment {
	selection = strings.TrimSpace(selection)
	var keep func(Appointment) bool
	switch strings.ToLower(selection) {
	case "", FilterAll:
		return slices.Clone(list)
	case FilterUpcoming:
		keep = func(a Appointment) bool { return a.Date.After(now) }
	case FilterPast:
		keep = func(a Appointment) bool { return a.Date.Before(now) }
	default:
		keep = func(a Appointment) bool { return strings.EqualFold(string(a.Status), selection) }
	}
	out := make([]Appointment, 0, len(list))
	for _, a := range list {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// Sort is stable. Desc negates the comparator so ties keep input order in
// both directions. Unknown keys return the input order.
func Sort(list []Appointment, key SortKey, dir Direction) []Appointment {
	out := slices.Clone(list)
	var cmp func(a, b Appointment) int
	switch key {
	case SortByDate:
		cmp = func(a, b Appointment) int { return a.Date.Compare(b.Date) }
	case SortByDoctor:
		col := collate.New(language.English)
		cmp = func(a, b Appointment) int { return col.CompareString(a.Doctor.Name, b.Doctor.Name) }
	case SortByStatus:
		cmp = func(a, b Appointment) int { return strings.Compare(string(a.Status), string(b.Status)) }
	default:
		return out
	}
	if dir == Desc {
		asc := cmp
		cmp = func(a, b Appointment) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

// NextUpcoming is the earliest confirmed appointment dated after now.
func NextUpcoming(list []Appointment, now time.Time) (Appointment, bool) {
	var (
		best  Appointment
		found bool
	)
	for _, a := range list {
		if a.Status != StatusConfirmed || !a.Date.After(now) {
			continue
		}
		if !found || a.Date.Before(best.Date) {
			best, found = a, true
		}
	}
	return best, found
}

type Counts struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
	Upcoming int            `json:"upcomingCount"`
}

// AggregateCounts counts by status; Upcoming counts every entry dated after
// now regardless of status.
func AggregateCounts(list []Appointment, now time.Time) Counts {
	c := Counts{Total: len(list), ByStatus: map[Status]int{}}
	for _, a := range list {
		c.ByStatus[a.Status]++
		if a.Date.After(now) {
			c.Upcoming++
		}
	}
	return c
}
