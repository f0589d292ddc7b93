package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// Toggle verifies location and face, then records a check-in or check-out
	Toggle(ctx context.Context, req ToggleRequest) (ToggleResponse, error)

	// ManualEntry records a check-in on behalf of an employee (admin)
	ManualEntry(ctx context.Context, req ManualEntryRequest) (AttendanceResponse, error)

	// GetByToken resolves a deep link; only the owner or an admin may read it
	GetByToken(ctx context.Context, token string) (AttendanceResponse, error)

	// QRLanding resolves a shift QR token into the toggle target
	QRLanding(ctx context.Context, qrToken string) (QRLandingResponse, error)

	// MyHistory lists the caller's records with derived flags and stats
	MyHistory(ctx context.Context, filter HistoryFilter) (HistoryResponse, error)

	// ListAttendance retrieves attendance records with filters (admin)
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
}
