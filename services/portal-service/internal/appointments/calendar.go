package appointments

import "time"

// Cell is one square of a calendar grid. Padding cells have no Day.
type Cell struct {
	Day          string        `json:"day,omitempty"`
	Appointments []Appointment `json:"appointments,omitempty"`
}

func (c Cell) Padding() bool { return c.Day == "" }

type MonthGrid struct {
	Month string                   `json:"month"`
	Cells []Cell                   `json:"cells"`
	Days  map[string][]Appointment `json:"days"`
}

type WeekView struct {
	Start string                   `json:"start"`
	Days  []Cell                   `json:"days"`
	ByDay map[string][]Appointment `json:"byDay"`
}

// BucketByDay lays out the month containing cursor as Sunday-first weeks.
// Leading and trailing padding keeps the cell count a multiple of 7.
// Days are computed in cursor's location.
func BucketByDay(list []Appointment, cursor time.Time) MonthGrid {
	loc := cursor.Location()
	first := time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, loc)
	daysInMonth := time.Date(cursor.Year(), cursor.Month()+1, 0, 0, 0, 0, 0, loc).Day()

	byDay := bucket(list, loc, func(t time.Time) bool {
		return t.Year() == first.Year() && t.Month() == first.Month()
	})

	lead := int(first.Weekday())
	cells := make([]Cell, 0, lead+daysInMonth+6)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{})
	}
	for d := 1; d <= daysInMonth; d++ {
		key := DayKey(time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, loc))
		cells = append(cells, Cell{Day: key, Appointments: byDay[key]})
	}
	for len(cells)%7 != 0 {
		cells = append(cells, Cell{})
	}
	return MonthGrid{Month: first.Format("2006-01"), Cells: cells, Days: byDay}
}

// BucketByWeek covers the seven days starting at the Sunday on or before weekStart.
func BucketByWeek(list []Appointment, weekStart time.Time) WeekView {
	start := WeekStart(weekStart)
	loc := start.Location()
	end := start.AddDate(0, 0, 7)

	byDay := bucket(list, loc, func(t time.Time) bool {
		return !t.Before(start) && t.Before(end)
	})
	days := make([]Cell, 0, 7)
	for i := 0; i < 7; i++ {
		key := DayKey(start.AddDate(0, 0, i))
		days = append(days, Cell{Day: key, Appointments: byDay[key]})
	}
	return WeekView{Start: DayKey(start), Days: days, ByDay: byDay}
}

// WeekStart is midnight of the Sunday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-int(t.Weekday()), 0, 0, 0, 0, t.Location())
}

func bucket(list []Appointment, loc *time.Location, in func(time.Time) bool) map[string][]Appointment {
	out := map[string][]Appointment{}
	for _, a := range list {
		y, m, d := a.Date.In(loc).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		if !in(day) {
			continue
		}
		key := DayKey(day)
		out[key] = append(out[key], a)
	}
	return out
}
