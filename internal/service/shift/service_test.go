package shift

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShiftRepo struct {
	shifts []shift.Shift
}

func (f *fakeShiftRepo) Create(_ context.Context, s shift.Shift) (shift.Shift, error) {
	s.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", len(f.shifts)+1)
	f.shifts = append(f.shifts, s)
	return s, nil
}

func (f *fakeShiftRepo) GetByID(_ context.Context, id string) (shift.Shift, error) {
	for _, s := range f.shifts {
		if s.ID == id {
			return s, nil
		}
	}
	return shift.Shift{}, shift.ErrShiftNotFound
}

func (f *fakeShiftRepo) GetByQRToken(_ context.Context, token string) (shift.Shift, error) {
	for _, s := range f.shifts {
		if s.QRToken == token {
			return s, nil
		}
	}
	return shift.Shift{}, shift.ErrShiftNotFound
}

func (f *fakeShiftRepo) List(context.Context) ([]shift.Shift, error) {
	return append([]shift.Shift(nil), f.shifts...), nil
}

func (f *fakeShiftRepo) Update(_ context.Context, s shift.Shift) (shift.Shift, error) {
	for i := range f.shifts {
		if f.shifts[i].ID == s.ID {
			f.shifts[i] = s
			return s, nil
		}
	}
	return shift.Shift{}, shift.ErrShiftNotFound
}

func (f *fakeShiftRepo) Delete(_ context.Context, id string) error {
	for i := range f.shifts {
		if f.shifts[i].ID == id {
			f.shifts = append(f.shifts[:i], f.shifts[i+1:]...)
			return nil
		}
	}
	return shift.ErrShiftNotFound
}

type fakeAssignmentRepo struct {
	items []shift.WeeklyAssignment
}

func (f *fakeAssignmentRepo) Create(_ context.Context, a shift.WeeklyAssignment) (shift.WeeklyAssignment, error) {
	for _, it := range f.items {
		if it.EmployeeID == a.EmployeeID && it.ShiftID == a.ShiftID && it.Weekday == a.Weekday {
			return shift.WeeklyAssignment{}, shift.ErrAssignmentExists
		}
	}
	a.ID = fmt.Sprintf("assign-%d", len(f.items)+1)
	f.items = append(f.items, a)
	return a, nil
}

func (f *fakeAssignmentRepo) List(_ context.Context, filter shift.AssignmentFilter) ([]shift.WeeklyAssignment, error) {
	var out []shift.WeeklyAssignment
	for _, a := range f.items {
		if filter.EmployeeID != nil && *filter.EmployeeID != a.EmployeeID {
			continue
		}
		if filter.ShiftID != nil && *filter.ShiftID != a.ShiftID {
			continue
		}
		if filter.Weekday != nil && *filter.Weekday != a.Weekday {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAssignmentRepo) Delete(context.Context, string) error { return nil }

type fakeExceptionRepo struct {
	items []shift.ShiftException
}

func (f *fakeExceptionRepo) Create(_ context.Context, e shift.ShiftException) (shift.ShiftException, error) {
	e.ID = fmt.Sprintf("exc-%d", len(f.items)+1)
	f.items = append(f.items, e)
	return e, nil
}

func (f *fakeExceptionRepo) GetByID(_ context.Context, id string) (shift.ShiftException, error) {
	for _, e := range f.items {
		if e.ID == id {
			return e, nil
		}
	}
	return shift.ShiftException{}, shift.ErrExceptionNotFound
}

func (f *fakeExceptionRepo) List(context.Context, shift.ExceptionFilter) ([]shift.ShiftException, error) {
	return f.items, nil
}

func (f *fakeExceptionRepo) ListActive(_ context.Context, from, to time.Time) ([]shift.ShiftException, error) {
	var out []shift.ShiftException
	for _, e := range f.items {
		if e.Type == shift.ExceptionOnce && (e.Date.Before(from) || e.Date.After(to)) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeExceptionRepo) Delete(context.Context, string) error { return nil }

func newTestService(t *testing.T, loc *time.Location) (*ShiftServiceImpl, *fakeShiftRepo, *fakeAssignmentRepo, *fakeExceptionRepo) {
	t.Helper()
	shifts := &fakeShiftRepo{shifts: []shift.Shift{morning, afternoon}}
	assignments := &fakeAssignmentRepo{}
	exceptions := &fakeExceptionRepo{}
	svc := NewShiftService(shifts, assignments, exceptions, loc, "https://cafe.example/")
	return svc.(*ShiftServiceImpl), shifts, assignments, exceptions
}

func TestServiceCurrentShiftUsesLocation(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	svc, _, _, _ := newTestService(t, loc)
	ctx := context.Background()

	// 02:30 UTC is 09:30 in ICT.
	got, err := svc.CurrentShift(ctx, time.Date(2024, 6, 10, 2, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Morning", got.Name)

	_, err = svc.CurrentShift(ctx, time.Date(2024, 6, 10, 5, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, shift.ErrNoShiftActive)
}

func TestServiceCreateShift(t *testing.T) {
	svc, repo, _, _ := newTestService(t, time.UTC)
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		resp, err := svc.CreateShift(ctx, shift.CreateShiftRequest{Name: " Evening ", StartTime: "17:00", EndTime: "22:00"})
		require.NoError(t, err)
		assert.Equal(t, "Evening", resp.Name)
		assert.Equal(t, "17:00", resp.StartTime)
		assert.Len(t, resp.QRToken, 26)
		assert.Equal(t, "https://cafe.example/attendance/qr/"+resp.QRToken, resp.CheckInURL)
		assert.Len(t, repo.shifts, 3)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := svc.CreateShift(ctx, shift.CreateShiftRequest{Name: "Bad", StartTime: "22:00", EndTime: "06:00"})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "end_time")
	})

	t.Run("tokens are unique", func(t *testing.T) {
		a, err := svc.CreateShift(ctx, shift.CreateShiftRequest{Name: "A", StartTime: "01:00", EndTime: "02:00"})
		require.NoError(t, err)
		b, err := svc.CreateShift(ctx, shift.CreateShiftRequest{Name: "B", StartTime: "01:00", EndTime: "02:00"})
		require.NoError(t, err)
		assert.NotEqual(t, a.QRToken, b.QRToken)
	})
}

func TestServiceUpdateShiftRegeneratesQR(t *testing.T) {
	svc, repo, _, _ := newTestService(t, time.UTC)
	repo.shifts[0].QRToken = "old-token"

	name := "Early"
	resp, err := svc.UpdateShift(context.Background(), shift.UpdateShiftRequest{ID: morning.ID, Name: &name, RegenerateQR: true})
	require.NoError(t, err)
	assert.Equal(t, "Early", resp.Name)
	assert.NotEqual(t, "old-token", resp.QRToken)
	assert.Equal(t, "07:00", resp.StartTime)
}

func TestServiceJustify(t *testing.T) {
	svc, _, assignments, exceptions := newTestService(t, time.UTC)
	ctx := context.Background()

	assignments.items = []shift.WeeklyAssignment{
		{ID: "a-mon", EmployeeID: "e1", ShiftID: morning.ID, Weekday: shift.Monday},
	}
	exceptions.items = []shift.ShiftException{
		{ID: "x-cancel", EmployeeID: "e1", Type: shift.ExceptionOnce, Date: dateOn(2024, 6, 11), StartTime: afternoon.StartTime, EndTime: afternoon.EndTime, IsAdded: false},
		{ID: "x-add", EmployeeID: "e1", Type: shift.ExceptionOnce, Date: dateOn(2024, 6, 11), StartTime: shift.NewClock(13, 30, 0), EndTime: afternoon.EndTime, IsAdded: true},
		{ID: "x-other", EmployeeID: "e2", Type: shift.ExceptionOnce, Date: dateOn(2024, 6, 11), StartTime: afternoon.StartTime, EndTime: afternoon.EndTime, IsAdded: true},
	}

	j, err := svc.Justify(ctx, "e1", morning, weekOf)
	require.NoError(t, err)
	require.NotNil(t, j.AssignmentID)
	assert.Equal(t, "a-mon", *j.AssignmentID)
	assert.Nil(t, j.ExceptionID)

	j, err = svc.Justify(ctx, "e1", afternoon, weekOf.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, j.AssignmentID)
	require.NotNil(t, j.ExceptionID)
	assert.Equal(t, "x-add", *j.ExceptionID)
}

func TestServiceWeekSchedule(t *testing.T) {
	svc, _, assignments, exceptions := newTestService(t, time.UTC)
	assignments.items = []shift.WeeklyAssignment{
		{ID: "a1", EmployeeID: "e1", EmployeeName: "An", ShiftID: morning.ID, Weekday: shift.Wednesday},
	}
	exceptions.items = []shift.ShiftException{
		{ID: "x1", EmployeeID: "e2", EmployeeName: "Binh", Type: shift.ExceptionPermanent, Weekday: weekday(shift.Wednesday), StartTime: morning.StartTime, EndTime: morning.EndTime, IsAdded: true},
	}

	ws, err := svc.WeekSchedule(context.Background(), time.Date(2024, 6, 13, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", ws.Dates[0])
	assert.Equal(t, []string{"An", "Binh"}, labels(ws.Rows[0].Days[shift.Wednesday]))
}

func TestServiceCreateException(t *testing.T) {
	svc, _, _, exceptions := newTestService(t, time.UTC)
	ctx := context.Background()

	t.Run("once with weekday is rejected", func(t *testing.T) {
		date, wd := "2024-06-12", 2
		_, err := svc.CreateException(ctx, shift.CreateExceptionRequest{
			EmployeeID: "9f1c2d3e-4b5a-4c6d-8e7f-0a1b2c3d4e5f", Type: "once", Date: &date, Weekday: &wd,
			StartTime: "07:00", EndTime: "11:00", IsAdded: true,
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "weekday")
	})

	t.Run("permanent without weekday is rejected", func(t *testing.T) {
		_, err := svc.CreateException(ctx, shift.CreateExceptionRequest{
			EmployeeID: "9f1c2d3e-4b5a-4c6d-8e7f-0a1b2c3d4e5f", Type: "permanent",
			StartTime: "07:00", EndTime: "11:00",
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "weekday")
	})

	t.Run("valid once", func(t *testing.T) {
		date := "2024-06-12"
		resp, err := svc.CreateException(ctx, shift.CreateExceptionRequest{
			EmployeeID: "9f1c2d3e-4b5a-4c6d-8e7f-0a1b2c3d4e5f", Type: "once", Date: &date,
			StartTime: "07:00", EndTime: "11:00", IsAdded: true, Reason: "cover",
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Date)
		assert.Equal(t, "2024-06-12", *resp.Date)
		assert.Nil(t, resp.Weekday)
		assert.Len(t, exceptions.items, 1)
	})
}

func TestServiceListFiltersRejectMalformedIDs(t *testing.T) {
	svc, _, _, _ := newTestService(t, time.UTC)
	ctx := context.Background()
	bad := "42"

	_, err := svc.ListAssignments(ctx, shift.AssignmentFilter{ShiftID: &bad})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "shift_id")

	_, err = svc.ListExceptions(ctx, shift.ExceptionFilter{EmployeeID: &bad})
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "employee_id")

	good := "9f1c2d3e-4b5a-4c6d-8e7f-0a1b2c3d4e5f"
	_, err = svc.ListExceptions(ctx, shift.ExceptionFilter{EmployeeID: &good})
	assert.NoError(t, err)
}
