package shift

import (
	"context"
	"time"
)

type ShiftRepository interface {
	Create(ctx context.Context, s Shift) (Shift, error)
	GetByID(ctx context.Context, id string) (Shift, error)
	GetByQRToken(ctx context.Context, token string) (Shift, error)
	// List returns every shift ordered by start time then id.
	List(ctx context.Context) ([]Shift, error)
	Update(ctx context.Context, s Shift) (Shift, error)
	Delete(ctx context.Context, id string) error
}

type AssignmentRepository interface {
	Create(ctx context.Context, a WeeklyAssignment) (WeeklyAssignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]WeeklyAssignment, error)
	Delete(ctx context.Context, id string) error
}

type ExceptionRepository interface {
	Create(ctx context.Context, e ShiftException) (ShiftException, error)
	GetByID(ctx context.Context, id string) (ShiftException, error)
	List(ctx context.Context, filter ExceptionFilter) ([]ShiftException, error)
	// ListActive returns once exceptions dated within [from, to] and every
	// permanent exception.
	ListActive(ctx context.Context, from, to time.Time) ([]ShiftException, error)
	Delete(ctx context.Context, id string) error
}
