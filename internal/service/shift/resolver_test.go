package shift

import (
	"testing"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	morning   = shift.Shift{ID: "s-morning", Name: "Morning", StartTime: shift.NewClock(7, 0, 0), EndTime: shift.NewClock(11, 0, 0)}
	afternoon = shift.Shift{ID: "s-afternoon", Name: "Afternoon", StartTime: shift.NewClock(13, 0, 0), EndTime: shift.NewClock(17, 0, 0)}
	evening   = shift.Shift{ID: "s-evening", Name: "Evening", StartTime: shift.NewClock(17, 0, 0), EndTime: shift.NewClock(22, 0, 0)}
)

// 2024-06-10 is a Monday.
var weekOf = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func weekday(d shift.Weekday) *shift.Weekday { return &d }

func dateOn(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCurrentShift(t *testing.T) {
	shifts := []shift.Shift{evening, afternoon, morning}

	cases := []struct {
		name string
		at   shift.Clock
		want string
		ok   bool
	}{
		{"start is inclusive", shift.NewClock(7, 0, 0), "s-morning", true},
		{"inside", shift.NewClock(9, 30, 0), "s-morning", true},
		{"end is exclusive", shift.NewClock(11, 0, 0), "", false},
		{"gap between shifts", shift.NewClock(12, 0, 0), "", false},
		{"boundary goes to next shift", shift.NewClock(17, 0, 0), "s-evening", true},
		{"before opening", shift.NewClock(6, 59, 59), "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := CurrentShift(shifts, c.at)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, got.ID)
		})
	}
}

func TestCurrentShiftOverlapPicksEarliestStart(t *testing.T) {
	long := shift.Shift{ID: "a-long", StartTime: shift.NewClock(8, 0, 0), EndTime: shift.NewClock(16, 0, 0)}
	early := shift.Shift{ID: "z-early", StartTime: shift.NewClock(7, 0, 0), EndTime: shift.NewClock(12, 0, 0)}
	sameStart := shift.Shift{ID: "b-same", StartTime: shift.NewClock(7, 0, 0), EndTime: shift.NewClock(9, 0, 0)}

	got, ok := CurrentShift([]shift.Shift{long, early, sameStart}, shift.NewClock(8, 30, 0))
	require.True(t, ok)
	assert.Equal(t, "b-same", got.ID)
}

func TestBestShift(t *testing.T) {
	shifts := []shift.Shift{afternoon, morning}

	t.Run("tie keeps earliest shift", func(t *testing.T) {
		w := shift.Window{Start: shift.NewClock(10, 0, 0), End: shift.NewClock(14, 0, 0)}
		assert.Equal(t, time.Hour, morning.Window().Overlap(w))
		assert.Equal(t, time.Hour, afternoon.Window().Overlap(w))

		got, ok := BestShift(shifts, w)
		require.True(t, ok)
		assert.Equal(t, "Morning", got.Name)
	})

	t.Run("strictly larger overlap wins", func(t *testing.T) {
		w := shift.Window{Start: shift.NewClock(10, 30, 0), End: shift.NewClock(15, 0, 0)}
		got, ok := BestShift(shifts, w)
		require.True(t, ok)
		assert.Equal(t, "Afternoon", got.Name)
	})

	t.Run("no overlap", func(t *testing.T) {
		w := shift.Window{Start: shift.NewClock(11, 0, 0), End: shift.NewClock(13, 0, 0)}
		_, ok := BestShift(shifts, w)
		assert.False(t, ok)
	})
}

func TestOrderExceptions(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []shift.ShiftException{
		{ID: "p1", Type: shift.ExceptionPermanent, CreatedAt: t0},
		{ID: "o2", Type: shift.ExceptionOnce, CreatedAt: t0.Add(time.Hour)},
		{ID: "o1", Type: shift.ExceptionOnce, CreatedAt: t0},
	}
	out := OrderExceptions(in)
	ids := []string{out[0].ID, out[1].ID, out[2].ID}
	assert.Equal(t, []string{"o1", "o2", "p1"}, ids)
	assert.Equal(t, "p1", in[0].ID, "input must not be reordered")
}

func labels(entries []shift.ScheduleEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Label)
	}
	return out
}

func TestBuildWeek(t *testing.T) {
	shifts := []shift.Shift{afternoon, morning}
	assignments := []shift.WeeklyAssignment{
		{ID: "a1", EmployeeID: "e-an", EmployeeName: "An", ShiftID: morning.ID, Weekday: shift.Monday},
		{ID: "a2", EmployeeID: "e-binh", EmployeeName: "Binh", ShiftID: morning.ID, Weekday: shift.Monday},
		{ID: "a3", EmployeeID: "e-chi", EmployeeName: "Chi", ShiftID: afternoon.ID, Weekday: shift.Friday},
	}

	t.Run("assignments seed the grid", func(t *testing.T) {
		ws := BuildWeek(weekOf.AddDate(0, 0, 3), shifts, assignments, nil)

		assert.Equal(t, weekOf, ws.WeekStart)
		assert.Equal(t, "2024-06-10", ws.Dates[0])
		assert.Equal(t, "2024-06-16", ws.Dates[6])
		require.Len(t, ws.Rows, 2)
		assert.Equal(t, "Morning", ws.Rows[0].Shift.Name)
		assert.Equal(t, []string{"An", "Binh"}, labels(ws.Rows[0].Days[shift.Monday]))
		assert.Equal(t, []string{"Chi"}, labels(ws.Rows[1].Days[shift.Friday]))
		assert.Empty(t, ws.Rows[1].Days[shift.Monday])
	})

	t.Run("once exception in week adds annotated name", func(t *testing.T) {
		exceptions := []shift.ShiftException{{
			ID: "x1", EmployeeID: "e-dung", EmployeeName: "Dung", Type: shift.ExceptionOnce,
			Date: dateOn(2024, 6, 12), StartTime: shift.NewClock(14, 0, 0), EndTime: shift.NewClock(17, 0, 0), IsAdded: true,
		}}
		ws := BuildWeek(weekOf, shifts, assignments, exceptions)
		assert.Equal(t, []string{"Dung (14:00-17:00)"}, labels(ws.Rows[1].Days[shift.Wednesday]))
		require.NotNil(t, ws.Rows[1].Days[shift.Wednesday][0].ExceptionID)
		assert.Equal(t, shift.SourceException, ws.Rows[1].Days[shift.Wednesday][0].Source)
	})

	t.Run("matching window is not annotated", func(t *testing.T) {
		exceptions := []shift.ShiftException{{
			ID: "x1", EmployeeID: "e-dung", EmployeeName: "Dung", Type: shift.ExceptionPermanent,
			Weekday: weekday(shift.Sunday), StartTime: morning.StartTime, EndTime: morning.EndTime, IsAdded: true,
		}}
		ws := BuildWeek(weekOf, shifts, nil, exceptions)
		assert.Equal(t, []string{"Dung"}, labels(ws.Rows[0].Days[shift.Sunday]))
	})

	t.Run("once exception outside week is ignored", func(t *testing.T) {
		exceptions := []shift.ShiftException{{
			ID: "x1", EmployeeID: "e-dung", EmployeeName: "Dung", Type: shift.ExceptionOnce,
			Date: dateOn(2024, 6, 17), StartTime: shift.NewClock(7, 0, 0), EndTime: shift.NewClock(11, 0, 0), IsAdded: true,
		}}
		ws := BuildWeek(weekOf, shifts, nil, exceptions)
		for _, row := range ws.Rows {
			for _, cell := range row.Days {
				assert.Empty(t, cell)
			}
		}
	})

	t.Run("cancellation removes the employee", func(t *testing.T) {
		exceptions := []shift.ShiftException{{
			ID: "x1", EmployeeID: "e-an", EmployeeName: "An", Type: shift.ExceptionOnce,
			Date: dateOn(2024, 6, 10), StartTime: shift.NewClock(7, 0, 0), EndTime: shift.NewClock(11, 0, 0), IsAdded: false,
		}}
		ws := BuildWeek(weekOf, shifts, assignments, exceptions)
		assert.Equal(t, []string{"Binh"}, labels(ws.Rows[0].Days[shift.Monday]))
	})

	t.Run("once cancellation runs before permanent addition", func(t *testing.T) {
		exceptions := []shift.ShiftException{
			{
				ID: "p", EmployeeID: "e-dung", EmployeeName: "Dung", Type: shift.ExceptionPermanent,
				Weekday: weekday(shift.Tuesday), StartTime: shift.NewClock(7, 0, 0), EndTime: shift.NewClock(11, 0, 0), IsAdded: true,
			},
			{
				ID: "o", EmployeeID: "e-dung", EmployeeName: "Dung", Type: shift.ExceptionOnce,
				Date: dateOn(2024, 6, 11), StartTime: shift.NewClock(7, 0, 0), EndTime: shift.NewClock(11, 0, 0), IsAdded: false,
			},
		}
		ws := BuildWeek(weekOf, shifts, nil, exceptions)
		assert.Equal(t, []string{"Dung"}, labels(ws.Rows[0].Days[shift.Tuesday]))
	})

	t.Run("zero overlap exception is dropped", func(t *testing.T) {
		exceptions := []shift.ShiftException{{
			ID: "x1", EmployeeID: "e-dung", EmployeeName: "Dung", Type: shift.ExceptionPermanent,
			Weekday: weekday(shift.Monday), StartTime: shift.NewClock(11, 0, 0), EndTime: shift.NewClock(13, 0, 0), IsAdded: true,
		}}
		ws := BuildWeek(weekOf, shifts, assignments, exceptions)
		assert.Equal(t, []string{"An", "Binh"}, labels(ws.Rows[0].Days[shift.Monday]))
		assert.Empty(t, ws.Rows[1].Days[shift.Monday])
	})

	t.Run("tied exception lands in the earliest shift", func(t *testing.T) {
		exceptions := []shift.ShiftException{{
			ID: "x1", EmployeeID: "e-dung", EmployeeName: "Dung", Type: shift.ExceptionPermanent,
			Weekday: weekday(shift.Thursday), StartTime: shift.NewClock(10, 0, 0), EndTime: shift.NewClock(14, 0, 0), IsAdded: true,
		}}
		ws := BuildWeek(weekOf, shifts, nil, exceptions)
		assert.Equal(t, []string{"Dung (10:00-14:00)"}, labels(ws.Rows[0].Days[shift.Thursday]))
		assert.Empty(t, ws.Rows[1].Days[shift.Thursday])
	})

	t.Run("deterministic output", func(t *testing.T) {
		exceptions := []shift.ShiftException{
			{ID: "x2", EmployeeID: "e-e", EmployeeName: "Em", Type: shift.ExceptionPermanent, Weekday: weekday(shift.Monday), StartTime: morning.StartTime, EndTime: morning.EndTime, IsAdded: true},
			{ID: "x1", EmployeeID: "e-d", EmployeeName: "Dung", Type: shift.ExceptionPermanent, Weekday: weekday(shift.Monday), StartTime: morning.StartTime, EndTime: morning.EndTime, IsAdded: true},
		}
		a := BuildWeek(weekOf, shifts, assignments, exceptions)
		b := BuildWeek(weekOf, []shift.Shift{morning, afternoon}, assignments, []shift.ShiftException{exceptions[1], exceptions[0]})
		assert.Equal(t, a, b)
		assert.Equal(t, []string{"An", "Binh", "Dung", "Em"}, labels(a.Rows[0].Days[shift.Monday]))
	})
}
