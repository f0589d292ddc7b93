package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/attendance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/user"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/handler/http/response"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/jwt"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/sse"
)

const sseKeepaliveInterval = 30 * time.Second

type AttendanceHandler interface {
	Toggle(w http.ResponseWriter, r *http.Request)
	ToggleByQR(w http.ResponseWriter, r *http.Request)
	QRLanding(w http.ResponseWriter, r *http.Request)
	GetByToken(w http.ResponseWriter, r *http.Request)
	MyHistory(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Manual(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	jwtService        jwt.Service
	hub               *sse.Hub
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, jwtService jwt.Service, hub *sse.Hub) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		jwtService:        jwtService,
		hub:               hub,
	}
}

// parseToggleForm reads the multipart toggle body. Missing inputs are left
// empty for the service to classify.
func parseToggleForm(r *http.Request) (attendance.ToggleRequest, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return attendance.ToggleRequest{}, err
	}

	faceImage, err := readFormFile(r, "face_image")
	if err != nil {
		return attendance.ToggleRequest{}, err
	}

	return attendance.ToggleRequest{
		Action:         r.FormValue("action"),
		Latitude:       r.FormValue("latitude"),
		Longitude:      r.FormValue("longitude"),
		LocationNote:   r.FormValue("location_note"),
		ShiftID:        optionalFormValue(r, "shift_id"),
		FaceImage:      faceImage,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}, nil
}

// Toggle implements AttendanceHandler.
func (h *attendanceHandlerImpl) Toggle(w http.ResponseWriter, r *http.Request) {
	req, err := parseToggleForm(r)
	if err != nil {
		slog.Error("Failed to parse toggle form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	h.toggle(w, r, req)
}

// ToggleByQR implements AttendanceHandler. The shift comes from the QR token
// in the path; a shift_id form field is ignored.
func (h *attendanceHandlerImpl) ToggleByQR(w http.ResponseWriter, r *http.Request) {
	req, err := parseToggleForm(r)
	if err != nil {
		slog.Error("Failed to parse toggle form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	qrToken := chi.URLParam(r, "qrToken")
	req.ShiftID = nil
	req.QRToken = &qrToken

	h.toggle(w, r, req)
}

func (h *attendanceHandlerImpl) toggle(w http.ResponseWriter, r *http.Request, req attendance.ToggleRequest) {
	result, err := h.attendanceService.Toggle(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Check in successful"
	if result.Action == string(attendance.ActionCheckOut) {
		message = "Check out successful"
	}
	response.SuccessWithMessage(w, message, result)
}

// QRLanding implements AttendanceHandler.
func (h *attendanceHandlerImpl) QRLanding(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.QRLanding(r.Context(), chi.URLParam(r, "qrToken"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetByToken implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetByToken(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// MyHistory implements AttendanceHandler.
func (h *attendanceHandlerImpl) MyHistory(w http.ResponseWriter, r *http.Request) {
	filter := attendance.HistoryFilter{
		StartDate: optionalQuery(r, "start_date"),
		EndDate:   optionalQuery(r, "end_date"),
		Status:    optionalQuery(r, "status"),
	}

	result, err := h.attendanceService.MyHistory(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := attendance.AttendanceFilter{
		EmployeeID: optionalQuery(r, "employee_id"),
		ShiftID:    optionalQuery(r, "shift_id"),
		StartDate:  optionalQuery(r, "start_date"),
		EndDate:    optionalQuery(r, "end_date"),
		Method:     optionalQuery(r, "method"),
		Page:       getIntQueryParam(r, "page", 0),
		Limit:      getIntQueryParam(r, "limit", 0),
		SortOrder:  r.URL.Query().Get("sort_order"),
	}

	result, err := h.attendanceService.ListAttendance(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Manual implements AttendanceHandler.
func (h *attendanceHandlerImpl) Manual(w http.ResponseWriter, r *http.Request) {
	var req attendance.ManualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode manual entry", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.ManualEntry(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Manual check in recorded", result)
}

// Stream pushes attendance events to admins over SSE. EventSource cannot set
// headers, so the short-lived SSE token arrives as ?token=.
func (h *attendanceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	userID, role, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}
	if role != user.RoleAdmin {
		response.HandleError(w, user.ErrAdminAccessRequired)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(sse.TopicAdmin)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"user_id\":%q}\n\n", userID)
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("failed to encode SSE event", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
