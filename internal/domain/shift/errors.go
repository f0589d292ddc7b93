package shift

import "errors"

var (
	ErrShiftNotFound   = errors.New("shift not found")
	ErrShiftNameExists = errors.New("shift with this name already exists")
	ErrShiftInUse      = errors.New("shift is referenced by attendance history")
	ErrNoShiftActive   = errors.New("no shift is active at this time")

	ErrAssignmentNotFound = errors.New("weekly assignment not found")
	ErrAssignmentExists   = errors.New("employee is already assigned to this shift on this weekday")

	ErrExceptionNotFound = errors.New("shift exception not found")
)
