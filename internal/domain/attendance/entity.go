package attendance

import (
	"math"
	"strings"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
)

type Action string

const (
	ActionCheckIn  Action = "checkin"
	ActionCheckOut Action = "checkout"
)

// ParseAction accepts the canonical names plus the snake_case spelling.
func ParseAction(s string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "checkin", "check_in":
		return ActionCheckIn, true
	case "checkout", "check_out":
		return ActionCheckOut, true
	}
	return "", false
}

type Method string

const (
	MethodAuto   Method = "auto"
	MethodManual Method = "manual"
)

// Note markers written by the toggle flow.
const (
	NoteLate          = "late"
	NoteEarlyLeave    = "early leave"
	NoteWrongLocation = "wrong location"
	NoteOnTime        = "on time, correct location"

	noteJoin   = ", "
	noteAppend = " | "
)

// Attendance is the fact of one employee working one shift on one day.
type Attendance struct {
	ID               string
	Token            string
	EmployeeID       string
	ShiftID          string
	AssignmentID     *string
	ExceptionID      *string
	WorkDate         time.Time
	CheckIn          *time.Time
	CheckOut         *time.Time
	Latitude         *float64
	Longitude        *float64
	DistanceMeters   *float64
	SiteName         *string
	WithinAdvisory   *bool // distance within the advisory radius of SiteName
	LocationNote     *string
	FaceImagePath    *string
	FaceVerified     bool
	MatchedProfileID *string
	Method           Method
	ManualBy         *string
	Note             *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Joined
	EmployeeName string
	EmployeeCode string
	ShiftName    string
	ShiftStart   shift.Clock
	ShiftEnd     shift.Clock
}

// IsLate reports whether check-in happened after the shift start, compared
// as time of day in loc.
func (a Attendance) IsLate(loc *time.Location) bool {
	if a.CheckIn == nil {
		return false
	}
	return shift.ClockOf(a.CheckIn.In(loc)) > a.ShiftStart
}

// LeftEarly reports whether check-out happened before the shift end.
func (a Attendance) LeftEarly(loc *time.Location) bool {
	if a.CheckOut == nil {
		return false
	}
	return shift.ClockOf(a.CheckOut.In(loc)) < a.ShiftEnd
}

// WorkedHours is nil unless both timestamps are present.
func (a Attendance) WorkedHours() *float64 {
	if a.CheckIn == nil || a.CheckOut == nil {
		return nil
	}
	h := a.CheckOut.Sub(*a.CheckIn).Hours()
	return &h
}

// HasCheckedIn and HasCheckedOut report the state machine position.
func (a Attendance) HasCheckedIn() bool  { return a.CheckIn != nil }
func (a Attendance) HasCheckedOut() bool { return a.CheckOut != nil }

// AppendNote merges note into any prior note.
func (a *Attendance) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if a.Note == nil || *a.Note == "" {
		a.Note = &note
		return
	}
	merged := *a.Note + noteAppend + note
	a.Note = &merged
}

// JoinNotes joins the annotations produced by a single event.
func JoinNotes(notes []string) string {
	return strings.Join(notes, noteJoin)
}

// Round returns v rounded to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// IdempotencyRecord stores the response of a request made with an
// Idempotency-Key header.
type IdempotencyRecord struct {
	UserID       string
	Key          string
	Endpoint     string
	RequestHash  string
	ResponseJSON []byte
	CreatedAt    time.Time
}
