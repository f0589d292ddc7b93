package shift

import "time"

// Weekday numbers days from Monday (0) to Sunday (6).
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// WeekStart returns midnight of the Monday on or before date.
func WeekStart(date time.Time) time.Time {
	y, m, d := date.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return midnight.AddDate(0, 0, -int(WeekdayOf(midnight)))
}

type Shift struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime Clock     `json:"start_time"`
	EndTime   Clock     `json:"end_time"`
	QRToken   string    `json:"qr_token"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s Shift) Window() Window {
	return Window{Start: s.StartTime, End: s.EndTime}
}

type WeeklyAssignment struct {
	ID         string
	EmployeeID string
	ShiftID    string
	Weekday    Weekday
	CreatedAt  time.Time

	// Join
	EmployeeName string
	ShiftName    string
}

type ExceptionType string

const (
	ExceptionOnce      ExceptionType = "once"
	ExceptionPermanent ExceptionType = "permanent"
)

var ExceptionTypeValues = []string{string(ExceptionOnce), string(ExceptionPermanent)}

type ShiftException struct {
	ID         string
	EmployeeID string
	Type       ExceptionType
	Date       *time.Time
	Weekday    *Weekday
	StartTime  Clock
	EndTime    Clock
	IsAdded    bool
	Reason     string
	CreatedAt  time.Time

	// Join
	EmployeeName string
}

func (e ShiftException) Window() Window {
	return Window{Start: e.StartTime, End: e.EndTime}
}

// AppliesOn reports whether the exception is in force on date.
func (e ShiftException) AppliesOn(date time.Time) bool {
	switch e.Type {
	case ExceptionOnce:
		if e.Date == nil {
			return false
		}
		y1, m1, d1 := e.Date.Date()
		y2, m2, d2 := date.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case ExceptionPermanent:
		return e.Weekday != nil && *e.Weekday == WeekdayOf(date)
	}
	return false
}

type EntrySource string

const (
	SourceAssignment EntrySource = "assignment"
	SourceException  EntrySource = "exception"
)

// ScheduleEntry is one employee placed in a shift on a given day.
type ScheduleEntry struct {
	EmployeeID  string      `json:"employee_id"`
	Name        string      `json:"name"`
	Label       string      `json:"label"`
	Source      EntrySource `json:"source"`
	ExceptionID *string     `json:"exception_id,omitempty"`
}

type ScheduleRow struct {
	Shift Shift              `json:"shift"`
	Days  [7][]ScheduleEntry `json:"days"`
}

// WeekSchedule is the shift × weekday grid of a calendar week starting on Monday.
type WeekSchedule struct {
	WeekStart time.Time     `json:"week_start"`
	Dates     [7]string     `json:"dates"`
	Rows      []ScheduleRow `json:"rows"`
}

// Justification names the schedule entries that place an employee in a shift on a date.
type Justification struct {
	AssignmentID *string
	ExceptionID  *string
}
