package shift

import (
	"sort"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
)

// SortShifts orders shifts by start time, then id. Every resolution below
// scans shifts in this order, so the earliest-starting shift wins ties.
func SortShifts(shifts []shift.Shift) {
	sort.SliceStable(shifts, func(i, j int) bool {
		if shifts[i].StartTime != shifts[j].StartTime {
			return shifts[i].StartTime < shifts[j].StartTime
		}
		return shifts[i].ID < shifts[j].ID
	})
}

// CurrentShift returns the first shift, in SortShifts order, whose window
// contains at.
func CurrentShift(shifts []shift.Shift, at shift.Clock) (shift.Shift, bool) {
	sorted := append([]shift.Shift(nil), shifts...)
	SortShifts(sorted)
	for _, s := range sorted {
		if s.Window().Contains(at) {
			return s, true
		}
	}
	return shift.Shift{}, false
}

// BestShift returns the shift overlapping w the most. A later shift only
// replaces the current best when its overlap is strictly larger. Zero
// overlap everywhere yields false.
func BestShift(shifts []shift.Shift, w shift.Window) (shift.Shift, bool) {
	sorted := append([]shift.Shift(nil), shifts...)
	SortShifts(sorted)

	var best shift.Shift
	var bestOverlap time.Duration
	for _, s := range sorted {
		if o := s.Window().Overlap(w); o > bestOverlap {
			best, bestOverlap = s, o
		}
	}
	return best, bestOverlap > 0
}

// OrderExceptions puts once exceptions before permanent ones, each group by
// creation time then id.
func OrderExceptions(exceptions []shift.ShiftException) []shift.ShiftException {
	out := append([]shift.ShiftException(nil), exceptions...)
	rank := func(t shift.ExceptionType) int {
		if t == shift.ExceptionOnce {
			return 0
		}
		return 1
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if rank(a.Type) != rank(b.Type) {
			return rank(a.Type) < rank(b.Type)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// BuildWeek lays out the week starting at weekStart. Assignments seed the
// grid, then exceptions add or cancel entries in the cell of the shift they
// overlap most.
func BuildWeek(weekStart time.Time, shifts []shift.Shift, assignments []shift.WeeklyAssignment, exceptions []shift.ShiftException) shift.WeekSchedule {
	weekStart = shift.WeekStart(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 6)

	sorted := append([]shift.Shift(nil), shifts...)
	SortShifts(sorted)

	ws := shift.WeekSchedule{WeekStart: weekStart, Rows: make([]shift.ScheduleRow, len(sorted))}
	for i := range ws.Dates {
		ws.Dates[i] = weekStart.AddDate(0, 0, i).Format("2006-01-02")
	}

	rowOf := make(map[string]int, len(sorted))
	for i, s := range sorted {
		ws.Rows[i] = shift.ScheduleRow{Shift: s}
		for d := range ws.Rows[i].Days {
			ws.Rows[i].Days[d] = []shift.ScheduleEntry{}
		}
		rowOf[s.ID] = i
	}

	for _, a := range assignments {
		row, ok := rowOf[a.ShiftID]
		if !ok || !a.Weekday.Valid() {
			continue
		}
		ws.Rows[row].Days[a.Weekday] = append(ws.Rows[row].Days[a.Weekday], shift.ScheduleEntry{
			EmployeeID: a.EmployeeID,
			Name:       a.EmployeeName,
			Label:      a.EmployeeName,
			Source:     shift.SourceAssignment,
		})
	}

	for _, e := range OrderExceptions(exceptions) {
		day, ok := exceptionDay(e, weekStart, weekEnd)
		if !ok {
			continue
		}
		target, ok := BestShift(sorted, e.Window())
		if !ok {
			continue
		}
		row := rowOf[target.ID]
		cell := ws.Rows[row].Days[day]

		if e.IsAdded {
			label := e.EmployeeName
			if e.Window() != target.Window() {
				label = e.EmployeeName + " (" + e.Window().String() + ")"
			}
			id := e.ID
			cell = append(cell, shift.ScheduleEntry{
				EmployeeID:  e.EmployeeID,
				Name:        e.EmployeeName,
				Label:       label,
				Source:      shift.SourceException,
				ExceptionID: &id,
			})
		} else {
			kept := cell[:0]
			for _, entry := range cell {
				if entry.EmployeeID != e.EmployeeID {
					kept = append(kept, entry)
				}
			}
			cell = kept
		}
		ws.Rows[row].Days[day] = cell
	}

	return ws
}

func exceptionDay(e shift.ShiftException, weekStart, weekEnd time.Time) (shift.Weekday, bool) {
	switch e.Type {
	case shift.ExceptionOnce:
		if e.Date == nil {
			return 0, false
		}
		y, m, d := e.Date.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, weekStart.Location())
		if date.Before(weekStart) || date.After(weekEnd) {
			return 0, false
		}
		return shift.WeekdayOf(date), true
	case shift.ExceptionPermanent:
		if e.Weekday == nil || !e.Weekday.Valid() {
			return 0, false
		}
		return *e.Weekday, true
	}
	return 0, false
}
