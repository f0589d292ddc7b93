package attendance

import "errors"

// Attendance domain errors
var (
	// Input errors
	ErrMissingGPS       = errors.New("latitude and longitude are required")
	ErrInvalidGPS       = errors.New("latitude and longitude must be valid decimal degrees")
	ErrMissingFaceImage = errors.New("a face image is required")
	ErrNoEnrolledFace   = errors.New("no face profile enrolled for this employee")
	ErrInvalidAction    = errors.New("action must be checkin or checkout")

	// Identity errors
	ErrFaceMismatch = errors.New("face does not match the enrolled profile")

	// State errors
	ErrAlreadyCheckedIn  = errors.New("you have already checked in for this shift today")
	ErrAlreadyCheckedOut = errors.New("you have already checked out for this shift today")
	ErrNotCheckedInYet   = errors.New("you have not checked in for this shift yet")

	// General errors
	ErrAttendanceNotFound  = errors.New("attendance record not found")
	ErrUnauthorized        = errors.New("unauthorized to access this attendance record")
	ErrIdempotencyConflict = errors.New("idempotency key was already used with a different request")
	ErrIdempotencyNotFound = errors.New("idempotency key not found")
)
