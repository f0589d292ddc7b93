package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID         string
	Code       string
	FirstName  string
	LastName   string
	Status     Status
	HourlyRate decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusOnHold   Status = "on_hold"
)

var StatusValues = []string{string(StatusActive), string(StatusInactive), string(StatusOnHold)}

// FaceProfile is one enrolled reference embedding. Embeddings never leave
// the service layer.
type FaceProfile struct {
	ID         string
	EmployeeID string
	Embedding  []float64
	ImagePath  string
	CreatedAt  time.Time
}

type EnrollMode string

const (
	EnrollAppend  EnrollMode = "append"
	EnrollReplace EnrollMode = "replace"
)
