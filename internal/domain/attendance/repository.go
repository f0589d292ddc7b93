package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
type AttendanceRepository interface {
	// GetOrCreateForUpdate returns the record for (employee, shift, work date),
	// inserting seed when none exists, and locks the row until the surrounding
	// transaction ends. Must run inside a transaction.
	GetOrCreateForUpdate(ctx context.Context, seed Attendance) (Attendance, error)

	// GetByToken retrieves a record by its deep-link token
	GetByToken(ctx context.Context, token string) (Attendance, error)

	// Update writes the mutable columns of an existing record
	Update(ctx context.Context, a Attendance) (Attendance, error)

	// List retrieves attendance records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)

	// ListByEmployee returns records whose work date lies in [from, to], ordered by check-in
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error)
}

type IdempotencyRepository interface {
	// Get returns a completed record, or ErrIdempotencyNotFound.
	Get(ctx context.Context, userID, key, endpoint string) (IdempotencyRecord, error)

	// Reserve claims rec's key inside the caller's transaction. A concurrent
	// reservation of the same key waits until the holder's transaction ends.
	// When the key was already completed the stored record is returned with
	// done=true; a different request hash yields ErrIdempotencyConflict.
	Reserve(ctx context.Context, rec IdempotencyRecord) (stored IdempotencyRecord, done bool, err error)

	// Complete stores the response for a key reserved in the same transaction
	Complete(ctx context.Context, rec IdempotencyRecord) error
}
