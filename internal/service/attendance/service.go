package attendance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/attendance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/employee"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/user"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/database"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/facematch"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/geo"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/jwt"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/sse"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/service/file"
)

const toggleEndpoint = "attendance.toggle"

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	idempotencyRepo attendance.IdempotencyRepository
	employeeRepo    employee.EmployeeRepository
	faceRepo        employee.FaceProfileRepository
	shiftService    shift.ShiftService
	matcher         facematch.Matcher
	geoValidator    *geo.Validator
	fileService     file.FileService
	txManager       database.TxManager
	publisher       sse.Publisher
	location        *time.Location
	baseURL         string
	now             func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	idempotencyRepo attendance.IdempotencyRepository,
	employeeRepo employee.EmployeeRepository,
	faceRepo employee.FaceProfileRepository,
	shiftService shift.ShiftService,
	matcher facematch.Matcher,
	geoValidator *geo.Validator,
	fileService file.FileService,
	txManager database.TxManager,
	publisher sse.Publisher,
	location *time.Location,
	baseURL string,
) attendance.AttendanceService {
	if location == nil {
		location = time.UTC
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		idempotencyRepo:      idempotencyRepo,
		employeeRepo:         employeeRepo,
		faceRepo:             faceRepo,
		shiftService:         shiftService,
		matcher:              matcher,
		geoValidator:         geoValidator,
		fileService:          fileService,
		txManager:            txManager,
		publisher:            publisher,
		location:             location,
		baseURL:              strings.TrimRight(baseURL, "/"),
		now:                  time.Now,
	}
}

// timePtrToString safely converts a *time.Time to a local string.
func (a *AttendanceServiceImpl) timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.In(a.location).Format("2006-01-02 15:04:05")
	return &format
}

func (a *AttendanceServiceImpl) recordURL(token string) string {
	return a.baseURL + "/attendance/records/" + token
}

// workDate truncates t to midnight in the service location.
func (a *AttendanceServiceImpl) workDate(t time.Time) time.Time {
	local := t.In(a.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, a.location)
}

// Toggle implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Toggle(ctx context.Context, req attendance.ToggleRequest) (attendance.ToggleResponse, error) {
	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return attendance.ToggleResponse{}, err
	}
	employeeID, err := principal.Employee()
	if err != nil {
		return attendance.ToggleResponse{}, err
	}

	var requestHash string
	if req.IdempotencyKey != "" {
		requestHash = toggleRequestHash(req)
		stored, found, err := a.checkIdempotency(ctx, principal.UserID, req.IdempotencyKey, requestHash)
		if err != nil {
			return attendance.ToggleResponse{}, err
		}
		if found {
			return stored, nil
		}
	}

	now := a.now().In(a.location)

	sh, err := a.resolveShift(ctx, req, now)
	if err != nil {
		return attendance.ToggleResponse{}, err
	}

	// Cheap checks first
	if strings.TrimSpace(req.Latitude) == "" || strings.TrimSpace(req.Longitude) == "" {
		return attendance.ToggleResponse{}, attendance.ErrMissingGPS
	}
	if len(req.FaceImage) == 0 {
		return attendance.ToggleResponse{}, attendance.ErrMissingFaceImage
	}
	lat, lon, err := geo.ParseCoordinate(req.Latitude, req.Longitude)
	if err != nil {
		return attendance.ToggleResponse{}, attendance.ErrInvalidGPS
	}
	action, ok := attendance.ParseAction(req.Action)
	if !ok {
		return attendance.ToggleResponse{}, attendance.ErrInvalidAction
	}

	profiles, err := a.faceRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return attendance.ToggleResponse{}, fmt.Errorf("failed to load face profiles: %w", err)
	}
	if len(profiles) == 0 {
		return attendance.ToggleResponse{}, attendance.ErrNoEnrolledFace
	}

	frame, err := a.fileService.NormalizeImage(req.FaceImage)
	if err != nil {
		return attendance.ToggleResponse{}, err
	}

	candidates := make([]facematch.Embedding, len(profiles))
	for i, p := range profiles {
		candidates[i] = p.Embedding
	}
	result, err := a.matcher.Match(ctx, frame, candidates)
	if err != nil {
		if errors.Is(err, facematch.ErrNoFaceDetected) {
			return attendance.ToggleResponse{}, err
		}
		return attendance.ToggleResponse{}, fmt.Errorf("failed to verify face: %w", err)
	}
	if !result.Matched || result.ProfileIndex == nil || *result.ProfileIndex >= len(profiles) {
		return attendance.ToggleResponse{}, attendance.ErrFaceMismatch
	}
	matchedProfileID := profiles[*result.ProfileIndex].ID

	fix := a.geoValidator.Locate(lat, lon)

	justification, err := a.shiftService.Justify(ctx, employeeID, sh, now)
	if err != nil {
		return attendance.ToggleResponse{}, err
	}

	imagePath, err := a.fileService.UploadFaceCapture(ctx, employeeID, now, frame, string(action))
	if err != nil {
		return attendance.ToggleResponse{}, err
	}

	var (
		resp     attendance.ToggleResponse
		replayed bool
	)
	err = a.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		if req.IdempotencyKey != "" {
			stored, done, err := a.reserveIdempotency(txCtx, principal.UserID, req.IdempotencyKey, requestHash)
			if err != nil {
				return err
			}
			if done {
				resp, replayed = stored, true
				return nil
			}
		}

		record, err := a.AttendanceRepository.GetOrCreateForUpdate(txCtx, attendance.Attendance{
			Token:        uuid.NewString(),
			EmployeeID:   employeeID,
			ShiftID:      sh.ID,
			AssignmentID: justification.AssignmentID,
			ExceptionID:  justification.ExceptionID,
			WorkDate:     a.workDate(now),
			Method:       attendance.MethodAuto,
		})
		if err != nil {
			return err
		}

		var (
			notes []string
			late  bool
			early bool
		)
		switch action {
		case attendance.ActionCheckIn:
			if record.HasCheckedIn() {
				return attendance.ErrAlreadyCheckedIn
			}
			record.CheckIn = &now
			if shift.ClockOf(now) > sh.StartTime {
				late = true
				notes = append(notes, attendance.NoteLate)
			}
		case attendance.ActionCheckOut:
			if !record.HasCheckedIn() {
				return attendance.ErrNotCheckedInYet
			}
			if record.HasCheckedOut() {
				return attendance.ErrAlreadyCheckedOut
			}
			record.CheckOut = &now
			if shift.ClockOf(now) < sh.EndTime {
				early = true
				notes = append(notes, attendance.NoteEarlyLeave)
			}
		}

		if !fix.Accepted {
			notes = append(notes, fmt.Sprintf("%s (%.1f m)", attendance.NoteWrongLocation, fix.Distance))
		}
		if len(notes) == 0 {
			notes = append(notes, attendance.NoteOnTime)
		}
		eventNote := attendance.JoinNotes(notes)

		roundedLat := attendance.Round(lat, 6)
		roundedLon := attendance.Round(lon, 6)
		distance := attendance.Round(fix.Distance, 2)
		record.Latitude = &roundedLat
		record.Longitude = &roundedLon
		record.DistanceMeters = &distance
		siteName, advisory := fix.Site.Name, fix.Advisory
		record.SiteName = &siteName
		record.WithinAdvisory = &advisory
		if note := strings.TrimSpace(req.LocationNote); note != "" {
			record.LocationNote = &note
		}
		record.FaceImagePath = &imagePath
		record.FaceVerified = true
		record.MatchedProfileID = &matchedProfileID
		record.Method = attendance.MethodAuto
		record.AppendNote(eventNote)

		saved, err := a.AttendanceRepository.Update(txCtx, record)
		if err != nil {
			return err
		}

		resp = attendance.ToggleResponse{
			Action:         string(action),
			RecordToken:    saved.Token,
			RecordURL:      a.recordURL(saved.Token),
			ShiftID:        sh.ID,
			ShiftName:      sh.Name,
			WorkDate:       saved.WorkDate.Format("2006-01-02"),
			CheckInTime:    a.timePtrToString(saved.CheckIn),
			CheckOutTime:   a.timePtrToString(saved.CheckOut),
			DistanceMeters: saved.DistanceMeters,
			SiteName:       fix.Site.Name,
			EventNote:      eventNote,
			Note:           saved.Note,
			IsLate:         late,
			LeftEarly:      early,
			WrongLocation:  !fix.Accepted,
		}

		if req.IdempotencyKey != "" {
			return a.completeIdempotency(txCtx, principal.UserID, req.IdempotencyKey, requestHash, resp)
		}
		return nil
	})
	if err != nil || replayed {
		if delErr := a.fileService.DeleteFile(ctx, imagePath); delErr != nil {
			slog.Error("failed to remove unused face capture", "path", imagePath, "error", delErr)
		}
		if err != nil {
			return attendance.ToggleResponse{}, err
		}
		return resp, nil
	}

	a.publish(employeeID, "attendance."+string(action), resp)
	return resp, nil
}

// resolveShift picks the explicit shift, the QR shift, or the shift active now.
func (a *AttendanceServiceImpl) resolveShift(ctx context.Context, req attendance.ToggleRequest, now time.Time) (shift.Shift, error) {
	switch {
	case req.ShiftID != nil && *req.ShiftID != "":
		return a.shiftService.FindShift(ctx, *req.ShiftID)
	case req.QRToken != nil && *req.QRToken != "":
		return a.shiftService.FindByQRToken(ctx, *req.QRToken)
	default:
		return a.shiftService.CurrentShift(ctx, now)
	}
}

func (a *AttendanceServiceImpl) publish(employeeID, event string, data interface{}) {
	if a.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"employee_id": employeeID,
		"attendance":  data,
	}
	a.publisher.Publish(sse.TopicAdmin, sse.Event{Event: event, Data: payload})
}

// toggleRequestHash fingerprints every input that influences a toggle.
func toggleRequestHash(req attendance.ToggleRequest) string {
	h := sha256.New()
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00",
		strings.ToLower(strings.TrimSpace(req.Action)), strings.TrimSpace(req.Latitude), strings.TrimSpace(req.Longitude),
		strings.TrimSpace(req.LocationNote), deref(req.ShiftID), deref(req.QRToken))
	h.Write(req.FaceImage)
	return hex.EncodeToString(h.Sum(nil))
}

func (a *AttendanceServiceImpl) checkIdempotency(ctx context.Context, userID, key, requestHash string) (attendance.ToggleResponse, bool, error) {
	if a.idempotencyRepo == nil {
		return attendance.ToggleResponse{}, false, nil
	}
	rec, err := a.idempotencyRepo.Get(ctx, userID, key, toggleEndpoint)
	if err != nil {
		if errors.Is(err, attendance.ErrIdempotencyNotFound) {
			return attendance.ToggleResponse{}, false, nil
		}
		return attendance.ToggleResponse{}, false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if rec.RequestHash != requestHash {
		return attendance.ToggleResponse{}, false, attendance.ErrIdempotencyConflict
	}
	var stored attendance.ToggleResponse
	if err := json.Unmarshal(rec.ResponseJSON, &stored); err != nil {
		return attendance.ToggleResponse{}, false, fmt.Errorf("failed to decode stored response: %w", err)
	}
	return stored, true, nil
}

// reserveIdempotency claims the key for this toggle, returning the stored
// response when an earlier request with the same key already finished.
func (a *AttendanceServiceImpl) reserveIdempotency(ctx context.Context, userID, key, requestHash string) (attendance.ToggleResponse, bool, error) {
	if a.idempotencyRepo == nil {
		return attendance.ToggleResponse{}, false, nil
	}
	rec, done, err := a.idempotencyRepo.Reserve(ctx, attendance.IdempotencyRecord{
		UserID:      userID,
		Key:         key,
		Endpoint:    toggleEndpoint,
		RequestHash: requestHash,
	})
	if err != nil || !done {
		return attendance.ToggleResponse{}, false, err
	}
	var stored attendance.ToggleResponse
	if err := json.Unmarshal(rec.ResponseJSON, &stored); err != nil {
		return attendance.ToggleResponse{}, false, fmt.Errorf("failed to decode stored response: %w", err)
	}
	return stored, true, nil
}

func (a *AttendanceServiceImpl) completeIdempotency(ctx context.Context, userID, key, requestHash string, resp attendance.ToggleResponse) error {
	if a.idempotencyRepo == nil {
		return nil
	}
	encoded, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode idempotent response: %w", err)
	}
	return a.idempotencyRepo.Complete(ctx, attendance.IdempotencyRecord{
		UserID:       userID,
		Key:          key,
		Endpoint:     toggleEndpoint,
		RequestHash:  requestHash,
		ResponseJSON: encoded,
	})
}

// ManualEntry implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ManualEntry(ctx context.Context, req attendance.ManualEntryRequest) (attendance.AttendanceResponse, error) {
	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !principal.IsAdmin() {
		return attendance.AttendanceResponse{}, user.ErrAdminAccessRequired
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := a.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	sh, err := a.shiftService.FindShift(ctx, req.ShiftID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now().In(a.location)
	justification, err := a.shiftService.Justify(ctx, emp.ID, sh, now)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var saved attendance.Attendance
	err = a.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		record, err := a.AttendanceRepository.GetOrCreateForUpdate(txCtx, attendance.Attendance{
			Token:        uuid.NewString(),
			EmployeeID:   emp.ID,
			ShiftID:      sh.ID,
			AssignmentID: justification.AssignmentID,
			ExceptionID:  justification.ExceptionID,
			WorkDate:     a.workDate(now),
			Method:       attendance.MethodManual,
		})
		if err != nil {
			return err
		}
		if record.HasCheckedIn() {
			return attendance.ErrAlreadyCheckedIn
		}

		record.CheckIn = &now
		record.Method = attendance.MethodManual
		record.ManualBy = &principal.UserID
		record.FaceVerified = false
		record.AppendNote(req.Note)

		saved, err = a.AttendanceRepository.Update(txCtx, record)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	saved.EmployeeName = emp.FullName()
	saved.EmployeeCode = emp.Code
	saved.ShiftName = sh.Name
	saved.ShiftStart = sh.StartTime
	saved.ShiftEnd = sh.EndTime

	resp := a.mapAttendanceToResponse(ctx, saved)
	a.publish(emp.ID, "attendance.manual", resp)
	return resp, nil
}

// GetByToken implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetByToken(ctx context.Context, token string) (attendance.AttendanceResponse, error) {
	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := a.AttendanceRepository.GetByToken(ctx, token)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if !principal.IsAdmin() {
		if principal.EmployeeID == nil || *principal.EmployeeID != record.EmployeeID {
			return attendance.AttendanceResponse{}, attendance.ErrUnauthorized
		}
	}
	return a.mapAttendanceToResponse(ctx, record), nil
}

// QRLanding implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) QRLanding(ctx context.Context, qrToken string) (attendance.QRLandingResponse, error) {
	sh, err := a.shiftService.FindByQRToken(ctx, qrToken)
	if err != nil {
		return attendance.QRLandingResponse{}, err
	}
	now := a.now().In(a.location)
	return attendance.QRLandingResponse{
		ShiftID:     sh.ID,
		ShiftName:   sh.Name,
		StartTime:   sh.StartTime.String(),
		EndTime:     sh.EndTime.String(),
		ToggleURL:   a.baseURL + "/api/v1/attendance/shifts/" + sh.QRToken + "/toggle",
		IsActiveNow: sh.Window().Contains(shift.ClockOf(now)),
	}, nil
}

// MyHistory implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MyHistory(ctx context.Context, filter attendance.HistoryFilter) (attendance.HistoryResponse, error) {
	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return attendance.HistoryResponse{}, err
	}
	employeeID, err := principal.Employee()
	if err != nil {
		return attendance.HistoryResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return attendance.HistoryResponse{}, err
	}

	today := a.workDate(a.now())
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, a.location)
	to := today
	if filter.StartDate != nil && *filter.StartDate != "" {
		from, _ = time.ParseInLocation("2006-01-02", *filter.StartDate, a.location)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		to, _ = time.ParseInLocation("2006-01-02", *filter.EndDate, a.location)
	}

	records, err := a.AttendanceRepository.ListByEmployee(ctx, employeeID, from, to)
	if err != nil {
		return attendance.HistoryResponse{}, fmt.Errorf("failed to list attendance history: %w", err)
	}

	resp := attendance.HistoryResponse{
		StartDate: from.Format("2006-01-02"),
		EndDate:   to.Format("2006-01-02"),
		Records:   make([]attendance.HistoryRow, 0, len(records)),
	}

	days := make(map[string]struct{})
	workedCount := 0
	for _, rec := range records {
		if !a.matchesHistoryStatus(rec, filter.Status) {
			continue
		}

		row := attendance.HistoryRow{
			AttendanceResponse: a.mapAttendanceToResponse(ctx, rec),
			LocationStatus:     attendance.LocationUnknown,
		}
		if rec.WithinAdvisory != nil {
			row.LocationStatus = attendance.LocationWrong
			if *rec.WithinAdvisory {
				row.LocationStatus = attendance.LocationCorrect
			}
		}
		resp.Records = append(resp.Records, row)

		days[rec.WorkDate.Format("2006-01-02")] = struct{}{}
		if h := rec.WorkedHours(); h != nil {
			resp.Stats.TotalWorkHours += *h
			workedCount++
		}
		if row.IsLate {
			resp.Stats.TotalLateCount++
		}
		if row.LeftEarly {
			resp.Stats.TotalEarlyCount++
		}
	}

	resp.Stats.TotalDays = len(days)
	if workedCount > 0 {
		resp.Stats.AvgWorkHours = attendance.Round(resp.Stats.TotalWorkHours/float64(workedCount), 2)
	}
	resp.Stats.TotalWorkHours = attendance.Round(resp.Stats.TotalWorkHours, 2)
	return resp, nil
}

func (a *AttendanceServiceImpl) matchesHistoryStatus(rec attendance.Attendance, status *string) bool {
	if status == nil || *status == "" {
		return true
	}
	late := rec.IsLate(a.location)
	early := rec.LeftEarly(a.location)
	switch *status {
	case attendance.HistoryStatusLate:
		return late
	case attendance.HistoryStatusEarly:
		return early
	case attendance.HistoryStatusOnTime:
		return rec.HasCheckedIn() && !late && !early
	case attendance.HistoryStatusIncomplete:
		return !rec.HasCheckedOut()
	}
	return true
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	attendances, total, err := a.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(attendances))
	for _, att := range attendances {
		responses = append(responses, a.mapAttendanceToResponse(ctx, att))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// mapAttendanceToResponse converts an Attendance entity to AttendanceResponse
func (a *AttendanceServiceImpl) mapAttendanceToResponse(ctx context.Context, att attendance.Attendance) attendance.AttendanceResponse {
	resp := attendance.AttendanceResponse{
		ID:             att.ID,
		Token:          att.Token,
		RecordURL:      a.recordURL(att.Token),
		EmployeeID:     att.EmployeeID,
		EmployeeName:   att.EmployeeName,
		EmployeeCode:   att.EmployeeCode,
		ShiftID:        att.ShiftID,
		ShiftName:      att.ShiftName,
		ShiftStart:     att.ShiftStart.String(),
		ShiftEnd:       att.ShiftEnd.String(),
		WorkDate:       att.WorkDate.Format("2006-01-02"),
		CheckInTime:    a.timePtrToString(att.CheckIn),
		CheckOutTime:   a.timePtrToString(att.CheckOut),
		Latitude:       att.Latitude,
		Longitude:      att.Longitude,
		DistanceMeters: att.DistanceMeters,
		SiteName:       att.SiteName,
		LocationNote:   att.LocationNote,
		FaceVerified:   att.FaceVerified,
		Method:         string(att.Method),
		Note:           att.Note,
		IsLate:         att.IsLate(a.location),
		LeftEarly:      att.LeftEarly(a.location),
	}
	if h := att.WorkedHours(); h != nil {
		rounded := attendance.Round(*h, 2)
		resp.WorkedHours = &rounded
	}
	if att.FaceImagePath != nil && *att.FaceImagePath != "" {
		if url, err := a.fileService.GetFileURL(ctx, *att.FaceImagePath, time.Hour); err == nil {
			resp.FaceImageURL = &url
		}
	}
	return resp
}
