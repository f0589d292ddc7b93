package employee

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/employee"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/database"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/facematch"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/pkg/validator"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/service/file"
)

type EmployeeServiceImpl struct {
	employee.EmployeeRepository
	faceRepo    employee.FaceProfileRepository
	txManager   database.TxManager
	matcher     facematch.Matcher
	fileService file.FileService
}

func NewEmployeeService(
	employeeRepo employee.EmployeeRepository,
	faceRepo employee.FaceProfileRepository,
	txManager database.TxManager,
	matcher facematch.Matcher,
	fileService file.FileService,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		EmployeeRepository: employeeRepo,
		faceRepo:           faceRepo,
		txManager:          txManager,
		matcher:            matcher,
		fileService:        fileService,
	}
}

func mapEmployeeToResponse(e employee.Employee) employee.EmployeeResponse {
	return employee.EmployeeResponse{
		ID:         e.ID,
		Code:       e.Code,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		FullName:   e.FullName(),
		Status:     string(e.Status),
		HourlyRate: e.HourlyRate.StringFixed(2),
	}
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	e, err := s.EmployeeRepository.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	resp := mapEmployeeToResponse(e)

	count, err := s.faceRepo.CountByEmployee(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to count face profiles: %w", err)
	}
	resp.FaceCount = &count
	return resp, nil
}

// CreateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	rate, _ := validator.IsValidAmount(req.HourlyRate)

	code := req.Code
	if code == "" {
		next, err := s.EmployeeRepository.NextCode(ctx)
		if err != nil {
			return employee.EmployeeResponse{}, fmt.Errorf("failed to generate employee code: %w", err)
		}
		code = next
	}

	created, err := s.EmployeeRepository.Create(ctx, employee.Employee{
		Code:       code,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Status:     employee.StatusActive,
		HourlyRate: rate,
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return mapEmployeeToResponse(created), nil
}

// UpdateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UpdateEmployee(ctx context.Context, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	e, err := s.EmployeeRepository.GetByID(ctx, req.ID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	if req.FirstName != nil {
		e.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		e.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Status != nil {
		e.Status = employee.Status(*req.Status)
	}
	if req.HourlyRate != nil {
		e.HourlyRate, _ = validator.IsValidAmount(*req.HourlyRate)
	}

	updated, err := s.EmployeeRepository.Update(ctx, e)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return mapEmployeeToResponse(updated), nil
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, filter employee.EmployeeFilter) ([]employee.EmployeeResponse, error) {
	employees, err := s.EmployeeRepository.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]employee.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, mapEmployeeToResponse(e))
	}
	return out, nil
}

// EnrollFace implements employee.EmployeeService.
func (s *EmployeeServiceImpl) EnrollFace(ctx context.Context, req employee.EnrollFaceRequest) (employee.FaceSummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.FaceSummaryResponse{}, err
	}
	mode := employee.EnrollMode(req.Mode)

	if _, err := s.EmployeeRepository.GetByID(ctx, req.EmployeeID); err != nil {
		return employee.FaceSummaryResponse{}, err
	}

	if mode == employee.EnrollReplace && !req.Confirm {
		count, err := s.faceRepo.CountByEmployee(ctx, req.EmployeeID)
		if err != nil {
			return employee.FaceSummaryResponse{}, fmt.Errorf("failed to count face profiles: %w", err)
		}
		if count > 0 {
			return employee.FaceSummaryResponse{}, employee.ErrConfirmationRequired
		}
	}

	normalized, err := s.fileService.NormalizeImage(req.Image)
	if err != nil {
		return employee.FaceSummaryResponse{}, err
	}

	embedding, err := s.matcher.Enroll(ctx, normalized)
	if err != nil {
		return employee.FaceSummaryResponse{}, err
	}

	imagePath, err := s.fileService.UploadFaceEnrollment(ctx, req.EmployeeID, normalized)
	if err != nil {
		return employee.FaceSummaryResponse{}, err
	}

	var replaced []string
	err = s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		if mode == employee.EnrollReplace {
			count, err := s.faceRepo.CountByEmployee(txCtx, req.EmployeeID)
			if err != nil {
				return fmt.Errorf("failed to count face profiles: %w", err)
			}
			if count > 0 && !req.Confirm {
				return employee.ErrConfirmationRequired
			}
			replaced, err = s.faceRepo.DeleteByEmployee(txCtx, req.EmployeeID)
			if err != nil {
				return fmt.Errorf("failed to delete face profiles: %w", err)
			}
		}

		_, err := s.faceRepo.Create(txCtx, employee.FaceProfile{
			EmployeeID: req.EmployeeID,
			Embedding:  embedding,
			ImagePath:  imagePath,
		})
		if err != nil {
			return fmt.Errorf("failed to save face profile: %w", err)
		}
		return nil
	})
	if err != nil {
		if delErr := s.fileService.DeleteFile(ctx, imagePath); delErr != nil {
			slog.Error("failed to remove orphaned face photo", "path", imagePath, "error", delErr)
		}
		return employee.FaceSummaryResponse{}, err
	}

	for _, path := range replaced {
		if path == "" {
			continue
		}
		if err := s.fileService.DeleteFile(ctx, path); err != nil {
			slog.Error("failed to remove replaced face photo", "path", path, "error", err)
		}
	}

	return s.ListFaces(ctx, req.EmployeeID)
}

// ListFaces implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListFaces(ctx context.Context, employeeID string) (employee.FaceSummaryResponse, error) {
	if _, err := s.EmployeeRepository.GetByID(ctx, employeeID); err != nil {
		return employee.FaceSummaryResponse{}, err
	}
	profiles, err := s.faceRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return employee.FaceSummaryResponse{}, fmt.Errorf("failed to list face profiles: %w", err)
	}

	resp := employee.FaceSummaryResponse{
		EmployeeID: employeeID,
		Count:      len(profiles),
		EnrolledAt: make([]string, 0, len(profiles)),
	}
	for _, p := range profiles {
		resp.EnrolledAt = append(resp.EnrolledAt, p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return resp, nil
}

