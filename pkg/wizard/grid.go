package wizard

import "github.com/hollandpark-shiatsu/bookings/internal/domain"

// Cell is one bookable slot as rendered in the week grid.
type Cell struct {
	Date     string
	Time     string
	Reserved bool
	Selected bool
}

// Day is one column of the grid.
type Day struct {
	Date  string
	Cells []Cell
}

// Grid renders the visible week. The skeleton is fixed, Monday through
// Saturday with a row per hour mark, regardless of how many reservations
// the slot query returned; fetched reservations are overlaid as disabled
// cells.
func (s State) Grid() []Day {
	marks := domain.HourMarks()
	days := make([]Day, 0, domain.DaysPerWeek)
	for _, d := range domain.WeekDays(s.WeekStart) {
		date := domain.FormatDate(d)
		cells := make([]Cell, 0, len(marks))
		for _, m := range marks {
			key := domain.SlotKey{Date: date, Time: m}
			cells = append(cells, Cell{
				Date:     date,
				Time:     m,
				Reserved: s.Reserved[key],
				Selected: s.Selected != nil && *s.Selected == key,
			})
		}
		days = append(days, Day{Date: date, Cells: cells})
	}
	return days
}
