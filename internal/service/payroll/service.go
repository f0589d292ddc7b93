package payroll

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/attendance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/employee"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/payroll"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/database"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/jwt"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	payrollRepo    payroll.PayrollRepository
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	txManager      database.TxManager
	location       *time.Location
	now            func() time.Time
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	txManager database.TxManager,
	location *time.Location,
) payroll.PayrollService {
	if location == nil {
		location = time.UTC
	}
	return &PayrollServiceImpl{
		payrollRepo:    payrollRepo,
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		txManager:      txManager,
		location:       location,
		now:            time.Now,
	}
}

// ========== SUMMARY ==========

func (s *PayrollServiceImpl) Create(ctx context.Context, req payroll.CreatePayrollRequest) (payroll.PayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}
	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	start, _ := time.ParseInLocation("2006-01-02", req.StartDate, s.location)
	end, _ := time.ParseInLocation("2006-01-02", req.EndDate, s.location)

	rate := emp.HourlyRate
	if req.HourlyRate != "" {
		rate = payroll.AmountOrZero(req.HourlyRate)
	}

	var id string
	err = s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		created, err := s.payrollRepo.Create(txCtx, payroll.Summary{
			EmployeeID: emp.ID,
			StartDate:  start,
			EndDate:    end,
			HourlyRate: rate,
			Bonus:      payroll.AmountOrZero(req.Bonus),
			Advance:    payroll.AmountOrZero(req.Advance),
			Deduction:  payroll.AmountOrZero(req.Deduction),
			Status:     payroll.StatusDraft,
			Notes:      req.Notes,
			CreatedBy:  &principal.UserID,
		})
		if err != nil {
			return err
		}
		id = created.ID
		_, err = s.generateDetails(txCtx, created)
		return err
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}

	return s.Get(ctx, id)
}

func (s *PayrollServiceImpl) Get(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	summary, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	details, err := s.payrollRepo.ListDetails(ctx, id)
	if err != nil {
		return payroll.PayrollResponse{}, fmt.Errorf("failed to list payroll details: %w", err)
	}
	return s.mapToResponse(summary, details), nil
}

func (s *PayrollServiceImpl) List(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListPayrollResponse{}, err
	}

	summaries, total, err := s.payrollRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrollResponse{}, fmt.Errorf("failed to list payrolls: %w", err)
	}

	responses := make([]payroll.PayrollResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, s.mapToResponse(summary, nil))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return payroll.ListPayrollResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Payrolls:   responses,
	}, nil
}

func (s *PayrollServiceImpl) Update(ctx context.Context, req payroll.UpdatePayrollRequest) (payroll.PayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}

	err := s.withEditable(ctx, req.ID, func(txCtx context.Context, summary payroll.Summary) error {
		if req.HourlyRate != nil {
			summary.HourlyRate = payroll.AmountOrZero(*req.HourlyRate)
		}
		if req.Bonus != nil {
			summary.Bonus = payroll.AmountOrZero(*req.Bonus)
		}
		if req.Advance != nil {
			summary.Advance = payroll.AmountOrZero(*req.Advance)
		}
		if req.Deduction != nil {
			summary.Deduction = payroll.AmountOrZero(*req.Deduction)
		}
		if req.Notes != nil {
			summary.Notes = req.Notes
		}
		if req.Status != nil {
			summary.Status = payroll.Status(*req.Status)
		}
		_, err := s.recalculate(txCtx, summary)
		return err
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return s.Get(ctx, req.ID)
}

func (s *PayrollServiceImpl) Delete(ctx context.Context, id string) error {
	return s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		summary, err := s.payrollRepo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if summary.Status.IsLocked() {
			return payroll.ErrLockedPayroll
		}
		return s.payrollRepo.Delete(txCtx, id)
	})
}

// ========== DERIVATION ==========

// GenerateDetails implements payroll.PayrollService.
func (s *PayrollServiceImpl) GenerateDetails(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	err := s.withEditable(ctx, id, func(txCtx context.Context, summary payroll.Summary) error {
		_, err := s.generateDetails(txCtx, summary)
		return err
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return s.Get(ctx, id)
}

// CalculateSalary implements payroll.PayrollService.
func (s *PayrollServiceImpl) CalculateSalary(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	err := s.withEditable(ctx, id, func(txCtx context.Context, summary payroll.Summary) error {
		_, err := s.recalculate(txCtx, summary)
		return err
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return s.Get(ctx, id)
}

func (s *PayrollServiceImpl) MarkAbsent(ctx context.Context, req payroll.MarkAbsentRequest) (payroll.PayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollResponse{}, err
	}
	date, _ := time.ParseInLocation("2006-01-02", req.Date, s.location)

	err := s.withEditable(ctx, req.SummaryID, func(txCtx context.Context, summary payroll.Summary) error {
		if !summary.Covers(date) {
			return payroll.ErrDateOutsidePeriod
		}
		detail := payroll.Detail{
			SummaryID:   summary.ID,
			WorkDate:    date,
			HoursWorked: decimal.Zero,
			Status:      payroll.DetailAbsent,
		}
		if req.Note != "" {
			detail.Note = &req.Note
		}
		if err := s.payrollRepo.InsertDetails(txCtx, []payroll.Detail{detail}); err != nil {
			return fmt.Errorf("failed to insert absence: %w", err)
		}
		_, err := s.recalculate(txCtx, summary)
		return err
	})
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return s.Get(ctx, req.SummaryID)
}

// withEditable locks the summary and runs fn only for draft or pending summaries.
func (s *PayrollServiceImpl) withEditable(ctx context.Context, id string, fn func(txCtx context.Context, summary payroll.Summary) error) error {
	return s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		summary, err := s.payrollRepo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if summary.Status.IsLocked() {
			return payroll.ErrLockedPayroll
		}
		if !summary.Status.IsEditable() {
			return payroll.ErrInvalidStatusTransition
		}
		return fn(txCtx, summary)
	})
}

// generateDetails replaces the detail lines of summary from attendance and
// recalculates. Must run inside a transaction holding the summary lock.
func (s *PayrollServiceImpl) generateDetails(ctx context.Context, summary payroll.Summary) (payroll.Summary, error) {
	if err := s.payrollRepo.DeleteDetails(ctx, summary.ID); err != nil {
		return payroll.Summary{}, fmt.Errorf("failed to clear payroll details: %w", err)
	}

	records, err := s.attendanceRepo.ListByEmployee(ctx, summary.EmployeeID, summary.StartDate, summary.EndDate)
	if err != nil {
		return payroll.Summary{}, fmt.Errorf("failed to read attendance: %w", err)
	}

	details := payroll.BuildDetails(summary, records, s.location)
	if len(details) > 0 {
		if err := s.payrollRepo.InsertDetails(ctx, details); err != nil {
			return payroll.Summary{}, fmt.Errorf("failed to insert payroll details: %w", err)
		}
	}

	summary.Calculate(details)
	return s.payrollRepo.UpdateAmounts(ctx, summary)
}

// recalculate sums the stored detail lines into summary.
func (s *PayrollServiceImpl) recalculate(ctx context.Context, summary payroll.Summary) (payroll.Summary, error) {
	details, err := s.payrollRepo.ListDetails(ctx, summary.ID)
	if err != nil {
		return payroll.Summary{}, fmt.Errorf("failed to list payroll details: %w", err)
	}
	summary.Calculate(details)
	return s.payrollRepo.UpdateAmounts(ctx, summary)
}

// ========== STATUS ==========

func (s *PayrollServiceImpl) Approve(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	principal, err := jwt.PrincipalFromContext(ctx)
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	return s.transition(ctx, id, []payroll.Status{payroll.StatusDraft, payroll.StatusPending}, payroll.StatusApproved, &principal.UserID)
}

func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	return s.transition(ctx, id, []payroll.Status{payroll.StatusApproved}, payroll.StatusPaid, nil)
}

func (s *PayrollServiceImpl) Cancel(ctx context.Context, id string) (payroll.PayrollResponse, error) {
	return s.transition(ctx, id, []payroll.Status{payroll.StatusDraft, payroll.StatusPending}, payroll.StatusCancelled, nil)
}

func (s *PayrollServiceImpl) transition(ctx context.Context, id string, from []payroll.Status, to payroll.Status, actor *string) (payroll.PayrollResponse, error) {
	_, ok, err := s.payrollRepo.TransitionStatus(ctx, id, from, to, actor, s.now())
	if err != nil {
		return payroll.PayrollResponse{}, err
	}
	if !ok {
		current, err := s.payrollRepo.GetByID(ctx, id)
		if err != nil {
			return payroll.PayrollResponse{}, err
		}
		if current.Status.IsLocked() && to != payroll.StatusPaid {
			return payroll.PayrollResponse{}, payroll.ErrLockedPayroll
		}
		return payroll.PayrollResponse{}, payroll.ErrInvalidStatusTransition
	}
	return s.Get(ctx, id)
}

// ========== HELPERS ==========

func (s *PayrollServiceImpl) formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	str := t.In(s.location).Format(time.RFC3339)
	return &str
}

func (s *PayrollServiceImpl) mapToResponse(summary payroll.Summary, details []payroll.Detail) payroll.PayrollResponse {
	resp := payroll.PayrollResponse{
		ID:           summary.ID,
		EmployeeID:   summary.EmployeeID,
		EmployeeName: summary.EmployeeName,
		EmployeeCode: summary.EmployeeCode,
		StartDate:    summary.StartDate.Format("2006-01-02"),
		EndDate:      summary.EndDate.Format("2006-01-02"),
		HourlyRate:   summary.HourlyRate.StringFixed(2),
		TotalHours:   summary.TotalHours.StringFixed(2),
		BasePay:      summary.BasePay.StringFixed(2),
		Bonus:        summary.Bonus.StringFixed(2),
		Advance:      summary.Advance.StringFixed(2),
		Deduction:    summary.Deduction.StringFixed(2),
		NetPay:       summary.NetPay.StringFixed(2),
		Status:       string(summary.Status),
		Notes:        summary.Notes,
		CreatedBy:    summary.CreatedBy,
		ApprovedBy:   summary.ApprovedBy,
		ApprovedAt:   s.formatTime(summary.ApprovedAt),
		PaidAt:       s.formatTime(summary.PaidAt),
	}
	if details != nil {
		resp.Details = make([]payroll.DetailResponse, 0, len(details))
		for _, d := range details {
			resp.Details = append(resp.Details, payroll.DetailResponse{
				ID:           d.ID,
				AttendanceID: d.AttendanceID,
				WorkDate:     d.WorkDate.Format("2006-01-02"),
				CheckInTime:  s.formatTime(d.CheckIn),
				CheckOutTime: s.formatTime(d.CheckOut),
				HoursWorked:  d.HoursWorked.StringFixed(2),
				Status:       string(d.Status),
				Note:         d.Note,
			})
		}
	}
	return resp
}
