package payroll

import (
	"testing"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/attendance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ict = time.FixedZone("ICT", 7*3600)

func at(day, h, m int) *time.Time {
	t := time.Date(2024, 6, day, h, m, 0, 0, ict)
	return &t
}

func TestCalculateNetPay(t *testing.T) {
	s := Summary{
		HourlyRate: decimal.NewFromInt(50000),
		Bonus:      decimal.NewFromInt(200000),
		Advance:    decimal.NewFromInt(100000),
		Deduction:  decimal.NewFromInt(50000),
	}
	details := make([]Detail, 10)
	for i := range details {
		details[i] = Detail{HoursWorked: decimal.NewFromInt(8)}
	}

	s.Calculate(details)
	assert.True(t, s.TotalHours.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, "4000000.00", s.BasePay.StringFixed(2))
	assert.Equal(t, "4050000.00", s.NetPay.StringFixed(2))

	again := s
	again.Calculate(details)
	assert.Equal(t, s.NetPay.String(), again.NetPay.String())
}

func TestCalculateEmpty(t *testing.T) {
	s := Summary{HourlyRate: decimal.NewFromInt(50000), Bonus: decimal.NewFromInt(10)}
	s.Calculate(nil)
	assert.True(t, s.TotalHours.IsZero())
	assert.True(t, s.NetPay.Equal(decimal.NewFromInt(10)))
}

func TestDetailStatusOf(t *testing.T) {
	assert.Equal(t, DetailNormal, DetailStatusOf(false, false))
	assert.Equal(t, DetailLate, DetailStatusOf(true, false))
	assert.Equal(t, DetailEarly, DetailStatusOf(false, true))
	assert.Equal(t, DetailLateEarly, DetailStatusOf(true, true))
}

func TestStatusLocks(t *testing.T) {
	assert.True(t, StatusApproved.IsLocked())
	assert.True(t, StatusPaid.IsLocked())
	assert.False(t, StatusDraft.IsLocked())
	assert.True(t, StatusPending.IsEditable())
	assert.False(t, StatusCancelled.IsEditable())
}

func TestHoursBetween(t *testing.T) {
	assert.Equal(t, "2.83", HoursBetween(at(10, 8, 10), at(10, 11, 0)).StringFixed(2))
	assert.True(t, HoursBetween(at(10, 8, 0), nil).IsZero())
}

func TestBuildDetails(t *testing.T) {
	s := Summary{
		ID:        "sum-1",
		StartDate: time.Date(2024, 6, 10, 0, 0, 0, 0, ict),
		EndDate:   time.Date(2024, 6, 12, 0, 0, 0, 0, ict),
	}
	base := attendance.Attendance{ShiftStart: shift.NewClock(8, 0, 0), ShiftEnd: shift.NewClock(12, 0, 0)}
	rec := func(id string, in, out *time.Time, note string) attendance.Attendance {
		r := base
		r.ID, r.CheckIn, r.CheckOut = id, in, out
		if note != "" {
			r.Note = &note
		}
		return r
	}

	records := []attendance.Attendance{
		rec("c", at(12, 8, 10), at(12, 11, 0), "late | early leave"),
		rec("a", at(10, 8, 15), at(10, 12, 0), "late"),
		rec("b", at(11, 8, 0), nil, ""),
		rec("x", at(13, 8, 0), at(13, 12, 0), ""),
		rec("n", nil, nil, ""),
	}

	details := BuildDetails(s, records, ict)
	require.Len(t, details, 3)

	assert.Equal(t, "a", *details[0].AttendanceID)
	assert.Equal(t, DetailLate, details[0].Status)
	assert.Equal(t, "3.75", details[0].HoursWorked.StringFixed(2))
	assert.Equal(t, "late", *details[0].Note)
	assert.Equal(t, "sum-1", details[0].SummaryID)

	assert.Equal(t, DetailNormal, details[1].Status)
	assert.True(t, details[1].HoursWorked.IsZero())

	assert.Equal(t, DetailLateEarly, details[2].Status)
	assert.Equal(t, "2024-06-12", details[2].WorkDate.Format("2006-01-02"))

	assert.Equal(t, details, BuildDetails(s, []attendance.Attendance{records[4], records[3], records[2], records[1], records[0]}, ict))
}

func TestCovers(t *testing.T) {
	s := Summary{StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, ict), EndDate: time.Date(2024, 6, 30, 0, 0, 0, 0, ict)}
	assert.True(t, s.Covers(time.Date(2024, 6, 30, 23, 59, 0, 0, ict)))
	assert.False(t, s.Covers(time.Date(2024, 7, 1, 0, 0, 0, 0, ict)))
}
