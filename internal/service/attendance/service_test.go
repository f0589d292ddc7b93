package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/attendance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/auth"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/employee"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/user"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/facematch"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/geo"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/jwt"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	empID    = "6f1c2a4e-8d3b-4c7a-9e21-0a5b6c7d8e9f"
	shiftID  = "2b7e1516-28ae-4d2a-a6f7-15883c4f3c3c"
	adminID  = "user-admin"
	staffID  = "user-staff"
	siteLat  = 16.095325
	siteLon  = 108.244254
	farLat   = 16.096224322 // ~100 m north of the site
	otherEmp = "0d9c8b7a-6f5e-4d3c-9b1a-0f9e8d7c6b5a"
)

var ict = time.FixedZone("ICT", 7*3600)

// ==================== FAKES ====================

type fakeAttendanceRepo struct {
	records map[string]attendance.Attendance
	seq     int
	writes  int
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: map[string]attendance.Attendance{}}
}

func recordKey(employeeID, shiftID string, workDate time.Time) string {
	return employeeID + "|" + shiftID + "|" + workDate.Format("2006-01-02")
}

func (f *fakeAttendanceRepo) GetOrCreateForUpdate(_ context.Context, seed attendance.Attendance) (attendance.Attendance, error) {
	key := recordKey(seed.EmployeeID, seed.ShiftID, seed.WorkDate)
	if rec, ok := f.records[key]; ok {
		return rec, nil
	}
	f.seq++
	seed.ID = fmt.Sprintf("att-%d", f.seq)
	f.records[key] = seed
	return seed, nil
}

func (f *fakeAttendanceRepo) find(_ context.Context, employeeID, shiftID string, workDate time.Time) (attendance.Attendance, error) {
	rec, ok := f.records[recordKey(employeeID, shiftID, workDate)]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return rec, nil
}

func (f *fakeAttendanceRepo) GetByToken(_ context.Context, token string) (attendance.Attendance, error) {
	for _, rec := range f.records {
		if rec.Token == token {
			return rec, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (f *fakeAttendanceRepo) Update(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	f.writes++
	f.records[recordKey(a.EmployeeID, a.ShiftID, a.WorkDate)] = a
	return a, nil
}

func (f *fakeAttendanceRepo) List(_ context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	out := make([]attendance.Attendance, 0, len(f.records))
	for _, rec := range f.records {
		if filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID {
			continue
		}
		out = append(out, rec)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttendanceRepo) ListByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, rec := range f.records {
		if rec.EmployeeID != employeeID || rec.WorkDate.Before(from) || rec.WorkDate.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type fakeIdempotencyRepo struct {
	records map[string]attendance.IdempotencyRecord
	// staleReads makes Get miss, as when the first request has not committed yet.
	staleReads bool
}

func (f *fakeIdempotencyRepo) Get(_ context.Context, userID, key, endpoint string) (attendance.IdempotencyRecord, error) {
	rec, ok := f.records[userID+key+endpoint]
	if !ok || f.staleReads || len(rec.ResponseJSON) == 0 {
		return attendance.IdempotencyRecord{}, attendance.ErrIdempotencyNotFound
	}
	return rec, nil
}

func (f *fakeIdempotencyRepo) Reserve(_ context.Context, rec attendance.IdempotencyRecord) (attendance.IdempotencyRecord, bool, error) {
	k := rec.UserID + rec.Key + rec.Endpoint
	stored, ok := f.records[k]
	if !ok {
		f.records[k] = rec
		return attendance.IdempotencyRecord{}, false, nil
	}
	if stored.RequestHash != rec.RequestHash {
		return attendance.IdempotencyRecord{}, false, attendance.ErrIdempotencyConflict
	}
	return stored, len(stored.ResponseJSON) > 0, nil
}

func (f *fakeIdempotencyRepo) Complete(_ context.Context, rec attendance.IdempotencyRecord) error {
	k := rec.UserID + rec.Key + rec.Endpoint
	stored, ok := f.records[k]
	if !ok || stored.RequestHash != rec.RequestHash {
		return attendance.ErrIdempotencyConflict
	}
	f.records[k] = rec
	return nil
}

type fakeEmployeeRepo struct {
	employee.EmployeeRepository
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

type fakeFaceRepo struct {
	employee.FaceProfileRepository
	profiles map[string][]employee.FaceProfile
}

func (f *fakeFaceRepo) ListByEmployee(_ context.Context, employeeID string) ([]employee.FaceProfile, error) {
	return f.profiles[employeeID], nil
}

// fakeShiftService only serves the lookups the toggle flow needs.
type fakeShiftService struct {
	shift.ShiftService
	shifts []shift.Shift
}

func (f *fakeShiftService) FindShift(_ context.Context, id string) (shift.Shift, error) {
	for _, s := range f.shifts {
		if s.ID == id {
			return s, nil
		}
	}
	return shift.Shift{}, shift.ErrShiftNotFound
}

func (f *fakeShiftService) FindByQRToken(_ context.Context, token string) (shift.Shift, error) {
	for _, s := range f.shifts {
		if s.QRToken == token {
			return s, nil
		}
	}
	return shift.Shift{}, shift.ErrShiftNotFound
}

func (f *fakeShiftService) CurrentShift(_ context.Context, at time.Time) (shift.Shift, error) {
	for _, s := range f.shifts {
		if s.Window().Contains(shift.ClockOf(at)) {
			return s, nil
		}
	}
	return shift.Shift{}, shift.ErrNoShiftActive
}

func (f *fakeShiftService) Justify(context.Context, string, shift.Shift, time.Time) (shift.Justification, error) {
	assignment := "assign-1"
	return shift.Justification{AssignmentID: &assignment}, nil
}

type fakeMatcher struct {
	result facematch.MatchResult
	err    error
	calls  int
}

func (f *fakeMatcher) Enroll(context.Context, []byte) (facematch.Embedding, error) {
	return facematch.Embedding{0.1}, nil
}

func (f *fakeMatcher) Match(context.Context, []byte, []facematch.Embedding) (facematch.MatchResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeFiles struct {
	uploaded []string
	deleted  []string
}

func (f *fakeFiles) NormalizeImage(data []byte) ([]byte, error) { return data, nil }

func (f *fakeFiles) UploadFaceCapture(_ context.Context, employeeID string, at time.Time, _ []byte, action string) (string, error) {
	path := fmt.Sprintf("attendance/%s/%s-%s-%d-%d.jpg", at.Format("2006-01-02"), employeeID, action, at.Unix(), len(f.uploaded))
	f.uploaded = append(f.uploaded, path)
	return path, nil
}

func (f *fakeFiles) UploadFaceEnrollment(context.Context, string, []byte) (string, error) {
	return "", nil
}

func (f *fakeFiles) DeleteFile(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeFiles) GetFileURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "/files/" + path, nil
}

// passTx restores the repository snapshots when fn fails.
type passTx struct {
	repo *fakeAttendanceRepo
	idem *fakeIdempotencyRepo
}

func (p passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := make(map[string]attendance.Attendance, len(p.repo.records))
	for k, v := range p.repo.records {
		snapshot[k] = v
	}
	keys := make(map[string]attendance.IdempotencyRecord, len(p.idem.records))
	for k, v := range p.idem.records {
		keys[k] = v
	}
	seq := p.repo.seq
	if err := fn(ctx); err != nil {
		p.repo.records = snapshot
		p.repo.seq = seq
		p.idem.records = keys
		return err
	}
	return nil
}

type recordingPublisher struct {
	events []sse.Event
}

func (r *recordingPublisher) Publish(topic string, event sse.Event) {
	event.Topic = topic
	r.events = append(r.events, event)
}

// ==================== HARNESS ====================

type harness struct {
	svc       *AttendanceServiceImpl
	repo      *fakeAttendanceRepo
	idem      *fakeIdempotencyRepo
	matcher   *fakeMatcher
	files     *fakeFiles
	publisher *recordingPublisher
	ja        jwt.Service
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	validator, err := geo.NewValidator(geo.Site{Name: "Cafe", Latitude: siteLat, Longitude: siteLon})
	require.NoError(t, err)

	idx := 0
	h := &harness{
		repo:      newFakeAttendanceRepo(),
		idem:      &fakeIdempotencyRepo{records: map[string]attendance.IdempotencyRecord{}},
		matcher:   &fakeMatcher{result: facematch.MatchResult{Matched: true, ProfileIndex: &idx}},
		files:     &fakeFiles{},
		publisher: &recordingPublisher{},
		ja:        jwt.NewJWTService("test-secret", "1h"),
		now:       time.Date(2024, 6, 10, 8, 15, 0, 0, ict),
	}

	employees := &fakeEmployeeRepo{employees: map[string]employee.Employee{
		empID: {ID: empID, Code: "DC000001", FirstName: "Lan", LastName: "Nguyen", Status: employee.StatusActive},
	}}
	faces := &fakeFaceRepo{profiles: map[string][]employee.FaceProfile{
		empID: {{ID: "face-1", EmployeeID: empID, Embedding: []float64{0.1}}},
	}}
	shifts := &fakeShiftService{shifts: []shift.Shift{{
		ID: shiftID, Name: "Morning", QRToken: "01HZX3QK7Y6M8R4T2V9W0B5N1C",
		StartTime: shift.NewClock(8, 0, 0), EndTime: shift.NewClock(12, 0, 0),
	}}}

	svc := NewAttendanceService(h.repo, h.idem, employees, faces, shifts, h.matcher, validator,
		h.files, passTx{repo: h.repo, idem: h.idem}, h.publisher, ict, "https://cafe.example.com/").(*AttendanceServiceImpl)
	svc.now = func() time.Time { return h.now }
	h.svc = svc
	return h
}

func (h *harness) staffCtx(t *testing.T) context.Context {
	t.Helper()
	id := empID
	ctx, err := jwt.WithPrincipal(context.Background(), h.ja.JWTAuth(), jwt.Principal{UserID: staffID, EmployeeID: &id, Role: user.RoleStaff})
	require.NoError(t, err)
	return ctx
}

func (h *harness) adminCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, err := jwt.WithPrincipal(context.Background(), h.ja.JWTAuth(), jwt.Principal{UserID: adminID, Role: user.RoleAdmin})
	require.NoError(t, err)
	return ctx
}

func toggleAt(action string, lat, lon float64) attendance.ToggleRequest {
	return attendance.ToggleRequest{
		Action:    action,
		Latitude:  fmt.Sprintf("%.9f", lat),
		Longitude: fmt.Sprintf("%.9f", lon),
		FaceImage: []byte("jpeg-bytes"),
	}
}

// ==================== TOGGLE ====================

func TestToggleCheckInLate(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", siteLat, siteLon))
	require.NoError(t, err)

	assert.Equal(t, "checkin", resp.Action)
	assert.True(t, resp.IsLate)
	assert.False(t, resp.WrongLocation)
	assert.Equal(t, "late", resp.EventNote)
	require.NotNil(t, resp.Note)
	assert.Equal(t, "late", *resp.Note)
	assert.Equal(t, "2024-06-10", resp.WorkDate)
	assert.Equal(t, "https://cafe.example.com/attendance/records/"+resp.RecordToken, resp.RecordURL)

	rec, err := h.repo.find(context.Background(), empID, shiftID, h.svc.workDate(h.now))
	require.NoError(t, err)
	assert.True(t, rec.FaceVerified)
	assert.Equal(t, attendance.MethodAuto, rec.Method)
	require.NotNil(t, rec.MatchedProfileID)
	assert.Equal(t, "face-1", *rec.MatchedProfileID)
	require.NotNil(t, rec.DistanceMeters)
	assert.Equal(t, 0.0, *rec.DistanceMeters)
	require.NotNil(t, rec.AssignmentID)
	assert.Equal(t, 1, h.repo.writes)

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, sse.TopicAdmin, h.publisher.events[0].Topic)
	assert.Equal(t, "attendance.checkin", h.publisher.events[0].Event)
}

func TestToggleCheckInOnTimeCorrectLocation(t *testing.T) {
	h := newHarness(t)
	h.now = time.Date(2024, 6, 10, 8, 0, 0, 0, ict)

	resp, err := h.svc.Toggle(h.staffCtx(t), toggleAt("check_in", siteLat, siteLon))
	require.NoError(t, err)
	assert.False(t, resp.IsLate)
	assert.Equal(t, attendance.NoteOnTime, resp.EventNote)
}

func TestToggleWrongLocation(t *testing.T) {
	h := newHarness(t)
	h.svc.shiftService.(*fakeShiftService).shifts[0].StartTime = shift.NewClock(7, 0, 0)
	h.now = time.Date(2024, 6, 10, 7, 0, 0, 0, ict)

	resp, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", farLat, siteLon))
	require.NoError(t, err)

	assert.True(t, resp.WrongLocation)
	assert.Equal(t, "wrong location (100.0 m)", resp.EventNote)
	require.NotNil(t, resp.DistanceMeters)
	assert.InDelta(t, 100.0, *resp.DistanceMeters, 0.05)
}

func TestToggleLateAndWrongLocationJoinNotes(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", farLat, siteLon))
	require.NoError(t, err)
	assert.Equal(t, "late, wrong location (100.0 m)", resp.EventNote)
}

func TestToggleFullDay(t *testing.T) {
	h := newHarness(t)
	ctx := h.staffCtx(t)

	_, err := h.svc.Toggle(ctx, toggleAt("checkin", siteLat, siteLon))
	require.NoError(t, err)

	h.now = time.Date(2024, 6, 10, 11, 30, 0, 0, ict)
	resp, err := h.svc.Toggle(ctx, toggleAt("checkout", siteLat, siteLon))
	require.NoError(t, err)

	assert.True(t, resp.LeftEarly)
	assert.Equal(t, "early leave", resp.EventNote)
	require.NotNil(t, resp.Note)
	assert.Equal(t, "late | early leave", *resp.Note)
	require.NotNil(t, resp.CheckInTime)
	require.NotNil(t, resp.CheckOutTime)
	assert.Equal(t, "2024-06-10 08:15:00", *resp.CheckInTime)
	assert.Equal(t, "2024-06-10 11:30:00", *resp.CheckOutTime)

	_, err = h.svc.Toggle(ctx, toggleAt("checkout", siteLat, siteLon))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	assert.Equal(t, 2, h.repo.writes)
}

func TestToggleCheckoutWithoutCheckin(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkout", siteLat, siteLon))
	require.ErrorIs(t, err, attendance.ErrNotCheckedInYet)

	assert.Empty(t, h.repo.records, "rolled back record must not persist")
	assert.Equal(t, 0, h.repo.writes)
	assert.Equal(t, h.files.uploaded, h.files.deleted)
	assert.Empty(t, h.publisher.events)
}

func TestToggleDoubleCheckIn(t *testing.T) {
	h := newHarness(t)
	ctx := h.staffCtx(t)

	_, err := h.svc.Toggle(ctx, toggleAt("checkin", siteLat, siteLon))
	require.NoError(t, err)
	first, err := h.repo.find(ctx, empID, shiftID, h.svc.workDate(h.now))
	require.NoError(t, err)

	h.now = h.now.Add(10 * time.Minute)
	_, err = h.svc.Toggle(ctx, toggleAt("checkin", siteLat, siteLon))
	require.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	after, err := h.repo.find(ctx, empID, shiftID, h.svc.workDate(h.now))
	require.NoError(t, err)
	assert.Equal(t, first, after)
	assert.Equal(t, 1, h.repo.writes)
}

func TestToggleInputFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*attendance.ToggleRequest)
		want   error
	}{
		{"missing latitude", func(r *attendance.ToggleRequest) { r.Latitude = "" }, attendance.ErrMissingGPS},
		{"missing longitude", func(r *attendance.ToggleRequest) { r.Longitude = " " }, attendance.ErrMissingGPS},
		{"missing image", func(r *attendance.ToggleRequest) { r.FaceImage = nil }, attendance.ErrMissingFaceImage},
		{"unparseable latitude", func(r *attendance.ToggleRequest) { r.Latitude = "north" }, attendance.ErrInvalidGPS},
		{"out of range", func(r *attendance.ToggleRequest) { r.Latitude = "91" }, attendance.ErrInvalidGPS},
		{"bad action", func(r *attendance.ToggleRequest) { r.Action = "lunch" }, attendance.ErrInvalidAction},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newHarness(t)
			req := toggleAt("checkin", siteLat, siteLon)
			c.mutate(&req)

			_, err := h.svc.Toggle(h.staffCtx(t), req)
			require.ErrorIs(t, err, c.want)
			assert.Equal(t, 0, h.matcher.calls, "cheap checks run before face matching")
			assert.Empty(t, h.repo.records)
			assert.Empty(t, h.files.uploaded)
		})
	}
}

func TestToggleFaceFailures(t *testing.T) {
	t.Run("mismatch", func(t *testing.T) {
		h := newHarness(t)
		h.matcher.result = facematch.MatchResult{}

		_, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", siteLat, siteLon))
		require.ErrorIs(t, err, attendance.ErrFaceMismatch)
		assert.Empty(t, h.repo.records)
		assert.Empty(t, h.files.uploaded)
	})

	t.Run("no face in frame", func(t *testing.T) {
		h := newHarness(t)
		h.matcher.err = facematch.ErrNoFaceDetected

		_, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", siteLat, siteLon))
		require.ErrorIs(t, err, facematch.ErrNoFaceDetected)
	})

	t.Run("service down", func(t *testing.T) {
		h := newHarness(t)
		h.matcher.err = facematch.ErrServiceUnavailable

		_, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", siteLat, siteLon))
		require.ErrorIs(t, err, facematch.ErrServiceUnavailable)
	})

	t.Run("nothing enrolled", func(t *testing.T) {
		h := newHarness(t)
		h.svc.faceRepo.(*fakeFaceRepo).profiles = map[string][]employee.FaceProfile{}

		_, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", siteLat, siteLon))
		require.ErrorIs(t, err, attendance.ErrNoEnrolledFace)
		assert.Equal(t, 0, h.matcher.calls)
	})
}

func TestToggleAuthAndShiftResolution(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Toggle(context.Background(), toggleAt("checkin", siteLat, siteLon))
		assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("account without employee", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Toggle(h.adminCtx(t), toggleAt("checkin", siteLat, siteLon))
		assert.ErrorIs(t, err, auth.ErrNotLinkedToEmployee)
	})

	t.Run("no active shift", func(t *testing.T) {
		h := newHarness(t)
		h.now = time.Date(2024, 6, 10, 13, 0, 0, 0, ict)
		_, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", siteLat, siteLon))
		assert.ErrorIs(t, err, shift.ErrNoShiftActive)
	})

	t.Run("explicit shift outside its window", func(t *testing.T) {
		h := newHarness(t)
		h.now = time.Date(2024, 6, 10, 13, 0, 0, 0, ict)
		req := toggleAt("checkin", siteLat, siteLon)
		id := shiftID
		req.ShiftID = &id

		resp, err := h.svc.Toggle(h.staffCtx(t), req)
		require.NoError(t, err)
		assert.Equal(t, "Morning", resp.ShiftName)
	})

	t.Run("qr token", func(t *testing.T) {
		h := newHarness(t)
		req := toggleAt("checkin", siteLat, siteLon)
		qr := "01HZX3QK7Y6M8R4T2V9W0B5N1C"
		req.QRToken = &qr

		resp, err := h.svc.Toggle(h.staffCtx(t), req)
		require.NoError(t, err)
		assert.Equal(t, shiftID, resp.ShiftID)
	})
}

func TestToggleIdempotency(t *testing.T) {
	h := newHarness(t)
	ctx := h.staffCtx(t)

	req := toggleAt("checkin", siteLat, siteLon)
	req.IdempotencyKey = "key-1"

	first, err := h.svc.Toggle(ctx, req)
	require.NoError(t, err)

	h.now = h.now.Add(time.Minute)
	replay, err := h.svc.Toggle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, replay)
	assert.Equal(t, 1, h.repo.writes)
	assert.Equal(t, 1, h.matcher.calls)

	changed := req
	changed.Latitude = "16.1"
	_, err = h.svc.Toggle(ctx, changed)
	assert.ErrorIs(t, err, attendance.ErrIdempotencyConflict)
}

func TestToggleDuplicateInFlightReplays(t *testing.T) {
	h := newHarness(t)
	ctx := h.staffCtx(t)

	req := toggleAt("checkin", siteLat, siteLon)
	req.IdempotencyKey = "key-3"
	first, err := h.svc.Toggle(ctx, req)
	require.NoError(t, err)

	// The duplicate read the key before the first request committed.
	h.idem.staleReads = true
	second, err := h.svc.Toggle(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.repo.writes)
	assert.Len(t, h.publisher.events, 1)
	require.Len(t, h.files.uploaded, 2)
	assert.Equal(t, []string{h.files.uploaded[1]}, h.files.deleted)

	changed := req
	changed.Latitude = "16.1"
	_, err = h.svc.Toggle(ctx, changed)
	assert.ErrorIs(t, err, attendance.ErrIdempotencyConflict)
	assert.Equal(t, 1, h.repo.writes)
}

func TestToggleFailureIsNotCached(t *testing.T) {
	h := newHarness(t)
	ctx := h.staffCtx(t)

	req := toggleAt("checkout", siteLat, siteLon)
	req.IdempotencyKey = "key-2"
	_, err := h.svc.Toggle(ctx, req)
	require.ErrorIs(t, err, attendance.ErrNotCheckedInYet)
	assert.Empty(t, h.idem.records)
}

// ==================== MANUAL ENTRY ====================

func TestManualEntry(t *testing.T) {
	t.Run("admin records check-in", func(t *testing.T) {
		h := newHarness(t)

		resp, err := h.svc.ManualEntry(h.adminCtx(t), attendance.ManualEntryRequest{
			EmployeeID: empID, ShiftID: shiftID, Note: "  forgot phone  ",
		})
		require.NoError(t, err)

		assert.Equal(t, string(attendance.MethodManual), resp.Method)
		assert.False(t, resp.FaceVerified)
		assert.Nil(t, resp.DistanceMeters)
		assert.Nil(t, resp.CheckOutTime)
		require.NotNil(t, resp.Note)
		assert.Equal(t, "forgot phone", *resp.Note)
		assert.Equal(t, "Lan Nguyen", resp.EmployeeName)

		rec, err := h.repo.find(context.Background(), empID, shiftID, h.svc.workDate(h.now))
		require.NoError(t, err)
		require.NotNil(t, rec.ManualBy)
		assert.Equal(t, adminID, *rec.ManualBy)
	})

	t.Run("existing check-in is kept", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", siteLat, siteLon))
		require.NoError(t, err)

		_, err = h.svc.ManualEntry(h.adminCtx(t), attendance.ManualEntryRequest{EmployeeID: empID, ShiftID: shiftID})
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	})

	t.Run("staff is rejected", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.ManualEntry(h.staffCtx(t), attendance.ManualEntryRequest{EmployeeID: empID, ShiftID: shiftID})
		assert.ErrorIs(t, err, user.ErrAdminAccessRequired)
	})

	t.Run("unknown employee", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.ManualEntry(h.adminCtx(t), attendance.ManualEntryRequest{EmployeeID: otherEmp, ShiftID: shiftID})
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})
}

// ==================== READS ====================

func TestGetByToken(t *testing.T) {
	h := newHarness(t)
	resp, err := h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", siteLat, siteLon))
	require.NoError(t, err)

	got, err := h.svc.GetByToken(h.staffCtx(t), resp.RecordToken)
	require.NoError(t, err)
	assert.Equal(t, empID, got.EmployeeID)
	require.NotNil(t, got.FaceImageURL)

	_, err = h.svc.GetByToken(h.adminCtx(t), resp.RecordToken)
	require.NoError(t, err)

	other := otherEmp
	ctx, err := jwt.WithPrincipal(context.Background(), h.ja.JWTAuth(), jwt.Principal{UserID: "u-2", EmployeeID: &other, Role: user.RoleStaff})
	require.NoError(t, err)
	_, err = h.svc.GetByToken(ctx, resp.RecordToken)
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)

	_, err = h.svc.GetByToken(h.adminCtx(t), "missing")
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestQRLanding(t *testing.T) {
	h := newHarness(t)

	landing, err := h.svc.QRLanding(context.Background(), "01HZX3QK7Y6M8R4T2V9W0B5N1C")
	require.NoError(t, err)
	assert.Equal(t, "https://cafe.example.com/api/v1/attendance/shifts/01HZX3QK7Y6M8R4T2V9W0B5N1C/toggle", landing.ToggleURL)
	assert.True(t, landing.IsActiveNow)
	assert.Equal(t, "08:00", landing.StartTime)

	_, err = h.svc.QRLanding(context.Background(), "nope")
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)
}

func TestMyHistoryUsesMeasuredSiteRadius(t *testing.T) {
	h := newHarness(t)
	ctx := h.staffCtx(t)

	// The kiosk has a tighter advisory radius than the roastery 1 km away.
	v, err := geo.NewValidator(
		geo.Site{Name: "Kiosk", Latitude: siteLat, Longitude: siteLon, MaxDistanceMeters: 2, AdvisoryDistanceMeters: 20},
		geo.Site{Name: "Roastery", Latitude: siteLat + 0.009, Longitude: siteLon, MaxDistanceMeters: 2, AdvisoryDistanceMeters: 50},
	)
	require.NoError(t, err)
	h.svc.geoValidator = v

	// ~30 m north of the kiosk.
	resp, err := h.svc.Toggle(ctx, toggleAt("checkin", siteLat+0.00027, siteLon))
	require.NoError(t, err)
	assert.Equal(t, "Kiosk", resp.SiteName)

	rec, err := h.repo.find(context.Background(), empID, shiftID, h.svc.workDate(h.now))
	require.NoError(t, err)
	require.NotNil(t, rec.SiteName)
	assert.Equal(t, "Kiosk", *rec.SiteName)
	require.NotNil(t, rec.WithinAdvisory)
	assert.False(t, *rec.WithinAdvisory)

	hist, err := h.svc.MyHistory(ctx, attendance.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, hist.Records, 1)
	assert.Equal(t, attendance.LocationWrong, hist.Records[0].LocationStatus)
	require.NotNil(t, hist.Records[0].SiteName)
	assert.Equal(t, "Kiosk", *hist.Records[0].SiteName)
}

func TestMyHistory(t *testing.T) {
	h := newHarness(t)
	ctx := h.staffCtx(t)

	// Day one: late, full day at the site.
	_, err := h.svc.Toggle(ctx, toggleAt("checkin", siteLat, siteLon))
	require.NoError(t, err)
	// The shift has ended, so checkout names it explicitly.
	h.now = time.Date(2024, 6, 10, 12, 15, 0, 0, ict)
	checkout := toggleAt("checkout", siteLat, siteLon)
	sid := shiftID
	checkout.ShiftID = &sid
	_, err = h.svc.Toggle(ctx, checkout)
	require.NoError(t, err)

	// Day two: on time but 100 m away, never checked out.
	h.now = time.Date(2024, 6, 11, 8, 0, 0, 0, ict)
	_, err = h.svc.Toggle(ctx, toggleAt("checkin", farLat, siteLon))
	require.NoError(t, err)

	// Records carry the joined shift window the repository would provide.
	for k, rec := range h.repo.records {
		rec.ShiftStart = shift.NewClock(8, 0, 0)
		rec.ShiftEnd = shift.NewClock(12, 0, 0)
		h.repo.records[k] = rec
	}

	hist, err := h.svc.MyHistory(ctx, attendance.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", hist.StartDate)
	assert.Equal(t, "2024-06-11", hist.EndDate)
	require.Len(t, hist.Records, 2)
	assert.Equal(t, 2, hist.Stats.TotalDays)
	assert.Equal(t, 4.0, hist.Stats.TotalWorkHours)
	assert.Equal(t, 4.0, hist.Stats.AvgWorkHours)
	assert.Equal(t, 1, hist.Stats.TotalLateCount)
	assert.Equal(t, 0, hist.Stats.TotalEarlyCount)

	byDate := map[string]attendance.HistoryRow{}
	for _, row := range hist.Records {
		byDate[row.WorkDate] = row
	}
	assert.Equal(t, attendance.LocationCorrect, byDate["2024-06-10"].LocationStatus)
	assert.Equal(t, attendance.LocationWrong, byDate["2024-06-11"].LocationStatus)

	status := attendance.HistoryStatusIncomplete
	hist, err = h.svc.MyHistory(ctx, attendance.HistoryFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, hist.Records, 1)
	assert.Equal(t, "2024-06-11", hist.Records[0].WorkDate)

	bad := "absent"
	_, err = h.svc.MyHistory(ctx, attendance.HistoryFilter{Status: &bad})
	assert.Error(t, err)
}

func TestListAttendancePagination(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.ListAttendance(context.Background(), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, "0 of 0", resp.Showing)
	assert.Equal(t, 20, resp.Limit)

	_, err = h.svc.Toggle(h.staffCtx(t), toggleAt("checkin", siteLat, siteLon))
	require.NoError(t, err)

	resp, err = h.svc.ListAttendance(context.Background(), attendance.AttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, "1-1 of 1", resp.Showing)
	assert.Equal(t, 1, resp.TotalPages)
	require.Len(t, resp.Attendances, 1)

	_, err = h.svc.ListAttendance(context.Background(), attendance.AttendanceFilter{Limit: 500})
	assert.Error(t, err)
}

func TestToggleRequestHashCoversImage(t *testing.T) {
	a := toggleAt("checkin", siteLat, siteLon)
	b := a
	b.FaceImage = []byte("other")
	assert.NotEqual(t, toggleRequestHash(a), toggleRequestHash(b))
	assert.Equal(t, toggleRequestHash(a), toggleRequestHash(a))
}
