package payroll

import (
	"sort"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

// Status of a payroll summary
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

var StatusValues = []string{
	string(StatusDraft), string(StatusPending), string(StatusApproved), string(StatusPaid), string(StatusCancelled),
}

// IsLocked reports whether details and amounts are frozen.
func (s Status) IsLocked() bool {
	return s == StatusApproved || s == StatusPaid
}

// IsEditable reports whether the summary may be regenerated or recalculated.
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusPending
}

// DetailStatus classifies one worked day
type DetailStatus string

const (
	DetailNormal    DetailStatus = "normal"
	DetailLate      DetailStatus = "late"
	DetailEarly     DetailStatus = "early"
	DetailLateEarly DetailStatus = "late_early"
	DetailAbsent    DetailStatus = "absent"
)

func DetailStatusOf(late, early bool) DetailStatus {
	switch {
	case late && early:
		return DetailLateEarly
	case late:
		return DetailLate
	case early:
		return DetailEarly
	}
	return DetailNormal
}

// Summary is one employee's pay for a date range.
type Summary struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	HourlyRate decimal.Decimal
	TotalHours decimal.Decimal
	BasePay    decimal.Decimal
	Bonus      decimal.Decimal
	Advance    decimal.Decimal
	Deduction  decimal.Decimal
	NetPay     decimal.Decimal
	Status     Status
	Notes      *string
	CreatedBy  *string
	ApprovedBy *string
	ApprovedAt *time.Time
	PaidAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Joined
	EmployeeName string
	EmployeeCode string
}

// Calculate derives total hours, base pay and net pay from details.
// The result depends only on the detail set and the summary's own amounts.
func (s *Summary) Calculate(details []Detail) {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.HoursWorked)
	}
	s.TotalHours = total
	s.BasePay = total.Mul(s.HourlyRate).Round(2)
	s.NetPay = s.BasePay.Add(s.Bonus).Sub(s.Advance).Sub(s.Deduction)
}

// Covers reports whether date falls inside the summary period.
func (s Summary) Covers(date time.Time) bool {
	d := date.Format("2006-01-02")
	return d >= s.StartDate.Format("2006-01-02") && d <= s.EndDate.Format("2006-01-02")
}

// Detail is one line of a summary.
type Detail struct {
	ID           string
	SummaryID    string
	AttendanceID *string
	WorkDate     time.Time
	CheckIn      *time.Time
	CheckOut     *time.Time
	HoursWorked  decimal.Decimal
	Status       DetailStatus
	Note         *string
	CreatedAt    time.Time
}

var hour = decimal.NewFromInt(int64(time.Hour))

// HoursBetween returns the span in hours rounded to 2 decimal places, or zero
// when either end is missing.
func HoursBetween(in, out *time.Time) decimal.Decimal {
	if in == nil || out == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(out.Sub(*in))).Div(hour).Round(2)
}

// BuildDetails turns the attendance records of a period into detail lines.
// Records are taken when their check-in falls on a date in the summary period
// (evaluated in loc), ordered by check-in and then id.
func BuildDetails(s Summary, records []attendance.Attendance, loc *time.Location) []Detail {
	eligible := make([]attendance.Attendance, 0, len(records))
	for _, r := range records {
		if r.CheckIn == nil || !s.Covers(r.CheckIn.In(loc)) {
			continue
		}
		eligible = append(eligible, r)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if !eligible[i].CheckIn.Equal(*eligible[j].CheckIn) {
			return eligible[i].CheckIn.Before(*eligible[j].CheckIn)
		}
		return eligible[i].ID < eligible[j].ID
	})

	details := make([]Detail, 0, len(eligible))
	for _, r := range eligible {
		attendanceID := r.ID
		in := r.CheckIn.In(loc)
		details = append(details, Detail{
			SummaryID:    s.ID,
			AttendanceID: &attendanceID,
			WorkDate:     time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, loc),
			CheckIn:      r.CheckIn,
			CheckOut:     r.CheckOut,
			HoursWorked:  HoursBetween(r.CheckIn, r.CheckOut),
			Status:       DetailStatusOf(r.IsLate(loc), r.LeftEarly(loc)),
			Note:         r.Note,
		})
	}
	return details
}
