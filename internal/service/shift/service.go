package shift

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
	"github.com/oklog/ulid/v2"
)

type ShiftServiceImpl struct {
	shift.ShiftRepository
	assignmentRepo shift.AssignmentRepository
	exceptionRepo  shift.ExceptionRepository
	location       *time.Location
	baseURL        string
}

func NewShiftService(
	shiftRepo shift.ShiftRepository,
	assignmentRepo shift.AssignmentRepository,
	exceptionRepo shift.ExceptionRepository,
	location *time.Location,
	baseURL string,
) shift.ShiftService {
	if location == nil {
		location = time.UTC
	}
	return &ShiftServiceImpl{
		ShiftRepository: shiftRepo,
		assignmentRepo:  assignmentRepo,
		exceptionRepo:   exceptionRepo,
		location:        location,
		baseURL:         strings.TrimRight(baseURL, "/"),
	}
}

// newQRToken returns an opaque, unguessable token for shift check-in links.
func newQRToken() string {
	return ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()
}

func (s *ShiftServiceImpl) toResponse(sh shift.Shift) shift.ShiftResponse {
	return shift.ShiftResponse{
		ID:         sh.ID,
		Name:       sh.Name,
		StartTime:  sh.StartTime.String(),
		EndTime:    sh.EndTime.String(),
		QRToken:    sh.QRToken,
		CheckInURL: s.baseURL + "/attendance/qr/" + sh.QRToken,
	}
}

// CreateShift implements shift.ShiftService.
func (s *ShiftServiceImpl) CreateShift(ctx context.Context, req shift.CreateShiftRequest) (shift.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}
	start, _ := shift.ParseClock(req.StartTime)
	end, _ := shift.ParseClock(req.EndTime)

	created, err := s.ShiftRepository.Create(ctx, shift.Shift{
		Name:      strings.TrimSpace(req.Name),
		StartTime: start,
		EndTime:   end,
		QRToken:   newQRToken(),
	})
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return s.toResponse(created), nil
}

// UpdateShift implements shift.ShiftService.
func (s *ShiftServiceImpl) UpdateShift(ctx context.Context, req shift.UpdateShiftRequest) (shift.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}
	existing, err := s.ShiftRepository.GetByID(ctx, req.ID)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	if req.Name != nil {
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.StartTime != nil {
		existing.StartTime, _ = shift.ParseClock(*req.StartTime)
		existing.EndTime, _ = shift.ParseClock(*req.EndTime)
	}
	if req.RegenerateQR {
		existing.QRToken = newQRToken()
	}

	updated, err := s.ShiftRepository.Update(ctx, existing)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return s.toResponse(updated), nil
}

// DeleteShift implements shift.ShiftService.
func (s *ShiftServiceImpl) DeleteShift(ctx context.Context, id string) error {
	return s.ShiftRepository.Delete(ctx, id)
}

// GetShift implements shift.ShiftService.
func (s *ShiftServiceImpl) GetShift(ctx context.Context, id string) (shift.ShiftResponse, error) {
	sh, err := s.ShiftRepository.GetByID(ctx, id)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return s.toResponse(sh), nil
}

// ListShifts implements shift.ShiftService.
func (s *ShiftServiceImpl) ListShifts(ctx context.Context) ([]shift.ShiftResponse, error) {
	shifts, err := s.ShiftRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	SortShifts(shifts)
	out := make([]shift.ShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		out = append(out, s.toResponse(sh))
	}
	return out, nil
}

// FindShift implements shift.ShiftService.
func (s *ShiftServiceImpl) FindShift(ctx context.Context, id string) (shift.Shift, error) {
	return s.ShiftRepository.GetByID(ctx, id)
}

// FindByQRToken implements shift.ShiftService.
func (s *ShiftServiceImpl) FindByQRToken(ctx context.Context, token string) (shift.Shift, error) {
	return s.ShiftRepository.GetByQRToken(ctx, token)
}

// CurrentShift implements shift.ShiftService.
func (s *ShiftServiceImpl) CurrentShift(ctx context.Context, at time.Time) (shift.Shift, error) {
	shifts, err := s.ShiftRepository.List(ctx)
	if err != nil {
		return shift.Shift{}, fmt.Errorf("failed to list shifts: %w", err)
	}
	current, ok := CurrentShift(shifts, shift.ClockOf(at.In(s.location)))
	if !ok {
		return shift.Shift{}, shift.ErrNoShiftActive
	}
	return current, nil
}

// ActiveShift implements shift.ShiftService.
func (s *ShiftServiceImpl) ActiveShift(ctx context.Context, at time.Time) (shift.ShiftResponse, error) {
	current, err := s.CurrentShift(ctx, at)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return s.toResponse(current), nil
}

// Justify implements shift.ShiftService.
func (s *ShiftServiceImpl) Justify(ctx context.Context, employeeID string, sh shift.Shift, date time.Time) (shift.Justification, error) {
	var j shift.Justification
	date = date.In(s.location)

	weekday := shift.WeekdayOf(date)
	assignments, err := s.assignmentRepo.List(ctx, shift.AssignmentFilter{
		EmployeeID: &employeeID,
		ShiftID:    &sh.ID,
		Weekday:    &weekday,
	})
	if err != nil {
		return j, fmt.Errorf("failed to list assignments: %w", err)
	}
	if len(assignments) > 0 {
		j.AssignmentID = &assignments[0].ID
	}

	exceptions, err := s.exceptionRepo.ListActive(ctx, date, date)
	if err != nil {
		return j, fmt.Errorf("failed to list exceptions: %w", err)
	}
	shifts, err := s.ShiftRepository.List(ctx)
	if err != nil {
		return j, fmt.Errorf("failed to list shifts: %w", err)
	}
	for _, e := range OrderExceptions(exceptions) {
		if e.EmployeeID != employeeID || !e.IsAdded || !e.AppliesOn(date) {
			continue
		}
		if target, ok := BestShift(shifts, e.Window()); ok && target.ID == sh.ID {
			id := e.ID
			j.ExceptionID = &id
			break
		}
	}
	return j, nil
}

// WeekSchedule implements shift.ShiftService.
func (s *ShiftServiceImpl) WeekSchedule(ctx context.Context, date time.Time) (shift.WeekSchedule, error) {
	start := shift.WeekStart(date.In(s.location))
	end := start.AddDate(0, 0, 6)

	shifts, err := s.ShiftRepository.List(ctx)
	if err != nil {
		return shift.WeekSchedule{}, fmt.Errorf("failed to list shifts: %w", err)
	}
	assignments, err := s.assignmentRepo.List(ctx, shift.AssignmentFilter{})
	if err != nil {
		return shift.WeekSchedule{}, fmt.Errorf("failed to list assignments: %w", err)
	}
	exceptions, err := s.exceptionRepo.ListActive(ctx, start, end)
	if err != nil {
		return shift.WeekSchedule{}, fmt.Errorf("failed to list exceptions: %w", err)
	}

	return BuildWeek(start, shifts, assignments, exceptions), nil
}

// CreateAssignment implements shift.ShiftService.
func (s *ShiftServiceImpl) CreateAssignment(ctx context.Context, req shift.CreateAssignmentRequest) (shift.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.AssignmentResponse{}, err
	}
	sh, err := s.ShiftRepository.GetByID(ctx, req.ShiftID)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	created, err := s.assignmentRepo.Create(ctx, shift.WeeklyAssignment{
		EmployeeID: req.EmployeeID,
		ShiftID:    req.ShiftID,
		Weekday:    shift.Weekday(*req.Weekday),
	})
	if err != nil {
		return shift.AssignmentResponse{}, err
	}
	created.ShiftName = sh.Name
	return mapAssignmentToResponse(created), nil
}

// ListAssignments implements shift.ShiftService.
func (s *ShiftServiceImpl) ListAssignments(ctx context.Context, filter shift.AssignmentFilter) ([]shift.AssignmentResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]shift.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, mapAssignmentToResponse(a))
	}
	return out, nil
}

// DeleteAssignment implements shift.ShiftService.
func (s *ShiftServiceImpl) DeleteAssignment(ctx context.Context, id string) error {
	return s.assignmentRepo.Delete(ctx, id)
}

// CreateException implements shift.ShiftService.
func (s *ShiftServiceImpl) CreateException(ctx context.Context, req shift.CreateExceptionRequest) (shift.ExceptionResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ExceptionResponse{}, err
	}
	start, _ := shift.ParseClock(req.StartTime)
	end, _ := shift.ParseClock(req.EndTime)

	e := shift.ShiftException{
		EmployeeID: req.EmployeeID,
		Type:       shift.ExceptionType(req.Type),
		StartTime:  start,
		EndTime:    end,
		IsAdded:    req.IsAdded,
		Reason:     strings.TrimSpace(req.Reason),
	}
	if req.Date != nil {
		date, _ := shift.ParseDate(*req.Date, s.location)
		e.Date = &date
	}
	if req.Weekday != nil {
		wd := shift.Weekday(*req.Weekday)
		e.Weekday = &wd
	}

	created, err := s.exceptionRepo.Create(ctx, e)
	if err != nil {
		return shift.ExceptionResponse{}, err
	}
	return mapExceptionToResponse(created), nil
}

// ListExceptions implements shift.ShiftService.
func (s *ShiftServiceImpl) ListExceptions(ctx context.Context, filter shift.ExceptionFilter) ([]shift.ExceptionResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	exceptions, err := s.exceptionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]shift.ExceptionResponse, 0, len(exceptions))
	for _, e := range OrderExceptions(exceptions) {
		out = append(out, mapExceptionToResponse(e))
	}
	return out, nil
}

// DeleteException implements shift.ShiftService.
func (s *ShiftServiceImpl) DeleteException(ctx context.Context, id string) error {
	return s.exceptionRepo.Delete(ctx, id)
}

func mapAssignmentToResponse(a shift.WeeklyAssignment) shift.AssignmentResponse {
	return shift.AssignmentResponse{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		EmployeeName: a.EmployeeName,
		ShiftID:      a.ShiftID,
		ShiftName:    a.ShiftName,
		Weekday:      int(a.Weekday),
	}
}

func mapExceptionToResponse(e shift.ShiftException) shift.ExceptionResponse {
	resp := shift.ExceptionResponse{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		EmployeeName: e.EmployeeName,
		Type:         string(e.Type),
		StartTime:    e.StartTime.String(),
		EndTime:      e.EndTime.String(),
		IsAdded:      e.IsAdded,
		Reason:       e.Reason,
	}
	if e.Date != nil {
		d := e.Date.Format("2006-01-02")
		resp.Date = &d
	}
	if e.Weekday != nil {
		wd := int(*e.Weekday)
		resp.Weekday = &wd
	}
	return resp
}
