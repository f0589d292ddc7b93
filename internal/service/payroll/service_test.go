package payroll

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/attendance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/employee"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/payroll"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/shift"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/user"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/jwt"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const empID = "6f1c2a4e-8d3b-4c7a-9e21-0a5b6c7d8e9f"

var ict = time.FixedZone("ICT", 7*3600)

// ==================== FAKES ====================

type fakePayrollRepo struct {
	summaries map[string]payroll.Summary
	details   map[string][]payroll.Detail
	seq       int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{summaries: map[string]payroll.Summary{}, details: map[string][]payroll.Detail{}}
}

func (f *fakePayrollRepo) Create(_ context.Context, s payroll.Summary) (payroll.Summary, error) {
	for _, existing := range f.summaries {
		if existing.EmployeeID == s.EmployeeID && existing.StartDate.Equal(s.StartDate) && existing.EndDate.Equal(s.EndDate) {
			return payroll.Summary{}, payroll.ErrPayrollExists
		}
	}
	f.seq++
	s.ID = fmt.Sprintf("pay-%d", f.seq)
	s.EmployeeCode = "DC000001"
	s.EmployeeName = "Lan Nguyen"
	f.summaries[s.ID] = s
	return s, nil
}

func (f *fakePayrollRepo) GetByID(_ context.Context, id string) (payroll.Summary, error) {
	s, ok := f.summaries[id]
	if !ok {
		return payroll.Summary{}, payroll.ErrPayrollNotFound
	}
	return s, nil
}

func (f *fakePayrollRepo) GetForUpdate(ctx context.Context, id string) (payroll.Summary, error) {
	return f.GetByID(ctx, id)
}

func (f *fakePayrollRepo) UpdateAmounts(_ context.Context, s payroll.Summary) (payroll.Summary, error) {
	f.summaries[s.ID] = s
	return s, nil
}

func (f *fakePayrollRepo) TransitionStatus(_ context.Context, id string, from []payroll.Status, to payroll.Status, actor *string, at time.Time) (payroll.Summary, bool, error) {
	s, ok := f.summaries[id]
	if !ok || !slices.Contains(from, s.Status) {
		return payroll.Summary{}, false, nil
	}
	s.Status = to
	switch to {
	case payroll.StatusApproved:
		s.ApprovedBy = actor
		s.ApprovedAt = &at
	case payroll.StatusPaid:
		s.PaidAt = &at
	}
	f.summaries[id] = s
	return s, true, nil
}

func (f *fakePayrollRepo) Delete(_ context.Context, id string) error {
	delete(f.summaries, id)
	delete(f.details, id)
	return nil
}

func (f *fakePayrollRepo) List(_ context.Context, filter payroll.PayrollFilter) ([]payroll.Summary, int64, error) {
	var out []payroll.Summary
	for _, s := range f.summaries {
		if filter.Status != nil && string(s.Status) != *filter.Status {
			continue
		}
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (f *fakePayrollRepo) ListDetails(_ context.Context, summaryID string) ([]payroll.Detail, error) {
	return slices.Clone(f.details[summaryID]), nil
}

func (f *fakePayrollRepo) DeleteDetails(_ context.Context, summaryID string) error {
	delete(f.details, summaryID)
	return nil
}

func (f *fakePayrollRepo) InsertDetails(_ context.Context, details []payroll.Detail) error {
	for _, d := range details {
		f.seq++
		d.ID = fmt.Sprintf("det-%d", f.seq)
		f.details[d.SummaryID] = append(f.details[d.SummaryID], d)
	}
	return nil
}

type fakeAttendanceRepo struct {
	attendance.AttendanceRepository
	records []attendance.Attendance
}

func (f *fakeAttendanceRepo) ListByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	for _, r := range f.records {
		if r.EmployeeID == employeeID && !r.WorkDate.Before(from) && !r.WorkDate.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employee.EmployeeRepository
}

func (fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	if id != empID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return employee.Employee{ID: empID, Code: "DC000001", FirstName: "Lan", LastName: "Nguyen", HourlyRate: decimal.NewFromInt(50000)}, nil
}

// passTx restores both maps when fn fails.
type passTx struct {
	repo *fakePayrollRepo
}

func (p passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	summaries := make(map[string]payroll.Summary, len(p.repo.summaries))
	for k, v := range p.repo.summaries {
		summaries[k] = v
	}
	details := make(map[string][]payroll.Detail, len(p.repo.details))
	for k, v := range p.repo.details {
		details[k] = slices.Clone(v)
	}
	if err := fn(ctx); err != nil {
		p.repo.summaries = summaries
		p.repo.details = details
		return err
	}
	return nil
}

// ==================== HARNESS ====================

func ts(day, h, m int) *time.Time {
	t := time.Date(2024, 6, day, h, m, 0, 0, ict)
	return &t
}

func record(id string, day int, in, out *time.Time, note string) attendance.Attendance {
	r := attendance.Attendance{
		ID:         id,
		EmployeeID: empID,
		WorkDate:   time.Date(2024, 6, day, 0, 0, 0, 0, ict),
		CheckIn:    in,
		CheckOut:   out,
		ShiftStart: shift.NewClock(8, 0, 0),
		ShiftEnd:   shift.NewClock(12, 0, 0),
	}
	if note != "" {
		r.Note = &note
	}
	return r
}

func newTestService(t *testing.T) (*PayrollServiceImpl, *fakePayrollRepo, *fakeAttendanceRepo, context.Context) {
	t.Helper()
	repo := newFakePayrollRepo()
	att := &fakeAttendanceRepo{records: []attendance.Attendance{
		record("a1", 10, ts(10, 8, 15), ts(10, 12, 0), "late"),
		record("a2", 11, ts(11, 8, 0), ts(11, 11, 30), "early leave"),
		record("a3", 12, ts(12, 8, 10), ts(12, 11, 0), ""),
		record("a4", 13, ts(13, 8, 0), nil, ""),
		record("a5", 20, ts(20, 8, 0), ts(20, 12, 0), ""),
	}}

	svc := NewPayrollService(repo, att, fakeEmployeeRepo{}, passTx{repo: repo}, ict).(*PayrollServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 6, 16, 9, 0, 0, 0, ict) }

	ja := jwt.NewJWTService("test-secret", "1h").JWTAuth()
	ctx, err := jwt.WithPrincipal(context.Background(), ja, jwt.Principal{UserID: "admin-1", Role: user.RoleAdmin})
	require.NoError(t, err)
	return svc, repo, att, ctx
}

func createWeek(t *testing.T, svc *PayrollServiceImpl, ctx context.Context) payroll.PayrollResponse {
	t.Helper()
	resp, err := svc.Create(ctx, payroll.CreatePayrollRequest{
		EmployeeID: empID,
		StartDate:  "2024-06-10",
		EndDate:    "2024-06-16",
	})
	require.NoError(t, err)
	return resp
}

// ==================== TESTS ====================

func TestCreateGeneratesDetails(t *testing.T) {
	svc, _, _, ctx := newTestService(t)

	resp := createWeek(t, svc, ctx)

	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, "50000.00", resp.HourlyRate)
	require.Len(t, resp.Details, 4)
	assert.Equal(t, []string{"late", "early", "late_early", "normal"}, []string{
		resp.Details[0].Status, resp.Details[1].Status, resp.Details[2].Status, resp.Details[3].Status,
	})
	assert.Equal(t, "0.00", resp.Details[3].HoursWorked)
	require.NotNil(t, resp.Details[0].Note)
	assert.Equal(t, "late", *resp.Details[0].Note)

	// 3.75 + 3.50 + 2.83 + 0
	assert.Equal(t, "10.08", resp.TotalHours)
	assert.Equal(t, "504000.00", resp.BasePay)
	assert.Equal(t, "504000.00", resp.NetPay)
	require.NotNil(t, resp.CreatedBy)
	assert.Equal(t, "admin-1", *resp.CreatedBy)
}

func TestCreateDuplicatePeriod(t *testing.T) {
	svc, repo, _, ctx := newTestService(t)
	createWeek(t, svc, ctx)

	_, err := svc.Create(ctx, payroll.CreatePayrollRequest{EmployeeID: empID, StartDate: "2024-06-10", EndDate: "2024-06-16"})
	assert.ErrorIs(t, err, payroll.ErrPayrollExists)
	assert.Len(t, repo.summaries, 1)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, ctx := newTestService(t)

	_, err := svc.Create(ctx, payroll.CreatePayrollRequest{EmployeeID: empID, StartDate: "2024-06-16", EndDate: "2024-06-10", Bonus: "-5"})
	require.Error(t, err)

	_, err = svc.Create(ctx, payroll.CreatePayrollRequest{EmployeeID: "0d9c8b7a-6f5e-4d3c-9b1a-0f9e8d7c6b5a", StartDate: "2024-06-10", EndDate: "2024-06-16"})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestUpdateRecalculatesNetPay(t *testing.T) {
	svc, _, _, ctx := newTestService(t)
	created := createWeek(t, svc, ctx)

	bonus, advance, deduction, status := "200000", "100000", "50000", "pending"
	resp, err := svc.Update(ctx, payroll.UpdatePayrollRequest{
		ID: created.ID, Bonus: &bonus, Advance: &advance, Deduction: &deduction, Status: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, "554000.00", resp.NetPay)
	assert.Equal(t, "pending", resp.Status)

	bad := "approved"
	_, err = svc.Update(ctx, payroll.UpdatePayrollRequest{ID: created.ID, Status: &bad})
	assert.Error(t, err)
}

func TestCalculateSalaryIsIdempotent(t *testing.T) {
	svc, _, _, ctx := newTestService(t)
	created := createWeek(t, svc, ctx)

	first, err := svc.CalculateSalary(ctx, created.ID)
	require.NoError(t, err)
	second, err := svc.CalculateSalary(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, created.NetPay, second.NetPay)
}

func TestGenerateDetailsReplacesLines(t *testing.T) {
	svc, repo, att, ctx := newTestService(t)
	created := createWeek(t, svc, ctx)

	again, err := svc.GenerateDetails(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, again.Details, 4)
	assert.Len(t, repo.details[created.ID], 4)

	att.records = append(att.records, record("a6", 14, ts(14, 8, 0), ts(14, 12, 0), ""))
	regen, err := svc.GenerateDetails(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, regen.Details, 5)
	assert.Equal(t, "14.08", regen.TotalHours)
}

func TestMarkAbsent(t *testing.T) {
	svc, _, _, ctx := newTestService(t)
	created := createWeek(t, svc, ctx)

	resp, err := svc.MarkAbsent(ctx, payroll.MarkAbsentRequest{SummaryID: created.ID, Date: "2024-06-15", Note: "sick"})
	require.NoError(t, err)
	require.Len(t, resp.Details, 5)
	assert.Equal(t, "absent", resp.Details[4].Status)
	assert.Equal(t, "0.00", resp.Details[4].HoursWorked)
	assert.Equal(t, created.TotalHours, resp.TotalHours)

	_, err = svc.MarkAbsent(ctx, payroll.MarkAbsentRequest{SummaryID: created.ID, Date: "2024-06-17"})
	assert.ErrorIs(t, err, payroll.ErrDateOutsidePeriod)
}

func TestApprovedPayrollIsLocked(t *testing.T) {
	svc, repo, att, ctx := newTestService(t)
	created := createWeek(t, svc, ctx)

	approved, err := svc.Approve(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "admin-1", *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	att.records = append(att.records, record("a6", 14, ts(14, 8, 0), ts(14, 12, 0), ""))
	before := repo.summaries[created.ID]

	_, err = svc.GenerateDetails(ctx, created.ID)
	assert.ErrorIs(t, err, payroll.ErrLockedPayroll)
	_, err = svc.CalculateSalary(ctx, created.ID)
	assert.ErrorIs(t, err, payroll.ErrLockedPayroll)
	bonus := "1"
	_, err = svc.Update(ctx, payroll.UpdatePayrollRequest{ID: created.ID, Bonus: &bonus})
	assert.ErrorIs(t, err, payroll.ErrLockedPayroll)
	_, err = svc.MarkAbsent(ctx, payroll.MarkAbsentRequest{SummaryID: created.ID, Date: "2024-06-15"})
	assert.ErrorIs(t, err, payroll.ErrLockedPayroll)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), payroll.ErrLockedPayroll)
	_, err = svc.Approve(ctx, created.ID)
	assert.ErrorIs(t, err, payroll.ErrLockedPayroll)
	_, err = svc.Cancel(ctx, created.ID)
	assert.ErrorIs(t, err, payroll.ErrLockedPayroll)

	assert.Equal(t, before, repo.summaries[created.ID])
	assert.Len(t, repo.details[created.ID], 4)

	paid, err := svc.MarkPaid(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = svc.MarkPaid(ctx, created.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)
}

func TestTransitionsFromDraft(t *testing.T) {
	svc, _, _, ctx := newTestService(t)
	created := createWeek(t, svc, ctx)

	_, err := svc.MarkPaid(ctx, created.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	cancelled, err := svc.Cancel(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)

	_, err = svc.GenerateDetails(ctx, created.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)
	_, err = svc.Approve(ctx, created.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, payroll.ErrPayrollNotFound)

	_, err = svc.Approve(ctx, "missing")
	assert.ErrorIs(t, err, payroll.ErrPayrollNotFound)
}

func TestList(t *testing.T) {
	svc, _, _, ctx := newTestService(t)
	createWeek(t, svc, ctx)

	resp, err := svc.List(ctx, payroll.PayrollFilter{})
	require.NoError(t, err)
	assert.Equal(t, "1-1 of 1", resp.Showing)
	require.Len(t, resp.Payrolls, 1)
	assert.Nil(t, resp.Payrolls[0].Details)

	status := "paid"
	resp, err = svc.List(ctx, payroll.PayrollFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "0 of 0", resp.Showing)

	bad := "archived"
	_, err = svc.List(ctx, payroll.PayrollFilter{Status: &bad})
	assert.Error(t, err)
}

func TestPayslip(t *testing.T) {
	svc, _, _, ctx := newTestService(t)
	created := createWeek(t, svc, ctx)

	name, data, err := svc.Payslip(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "payslip-DC000001-20240610.pdf", name)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
