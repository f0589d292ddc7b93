package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/domain/finance"
	"github.com/nguyenvanhoang09092005/CoffeeAttendance/internal/handler/http/response"
)

type FinanceHandler interface {
	CreateCategory(w http.ResponseWriter, r *http.Request)
	ListCategories(w http.ResponseWriter, r *http.Request)
	DeactivateCategory(w http.ResponseWriter, r *http.Request)

	CreateExpense(w http.ResponseWriter, r *http.Request)
	ListExpenses(w http.ResponseWriter, r *http.Request)
	ApproveExpense(w http.ResponseWriter, r *http.Request)
	RejectExpense(w http.ResponseWriter, r *http.Request)
	DeleteExpense(w http.ResponseWriter, r *http.Request)

	CreateRevenue(w http.ResponseWriter, r *http.Request)
	ListRevenues(w http.ResponseWriter, r *http.Request)
	DeleteRevenue(w http.ResponseWriter, r *http.Request)

	Summary(w http.ResponseWriter, r *http.Request)
}

type financeHandlerImpl struct {
	financeService finance.FinanceService
}

func NewFinanceHandler(financeService finance.FinanceService) FinanceHandler {
	return &financeHandlerImpl{
		financeService: financeService,
	}
}

// ========== CATEGORIES ==========

// CreateCategory implements FinanceHandler.
func (h *financeHandlerImpl) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req finance.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode category", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.financeService.CreateCategory(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Category created", result)
}

// ListCategories implements FinanceHandler.
func (h *financeHandlerImpl) ListCategories(w http.ResponseWriter, r *http.Request) {
	result, err := h.financeService.ListCategories(r.Context(), getBoolQueryParam(r, "active_only", false))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DeactivateCategory implements FinanceHandler.
func (h *financeHandlerImpl) DeactivateCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.financeService.DeactivateCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Category deactivated", nil)
}

// ========== EXPENSES ==========

// CreateExpense implements FinanceHandler.
func (h *financeHandlerImpl) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req finance.CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode expense", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.financeService.CreateExpense(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Expense recorded", result)
}

// ListExpenses implements FinanceHandler.
func (h *financeHandlerImpl) ListExpenses(w http.ResponseWriter, r *http.Request) {
	filter := finance.ExpenseFilter{
		CategoryID: optionalQuery(r, "category_id"),
		Status:     optionalQuery(r, "status"),
		StartDate:  optionalQuery(r, "start_date"),
		EndDate:    optionalQuery(r, "end_date"),
		Page:       getIntQueryParam(r, "page", 0),
		Limit:      getIntQueryParam(r, "limit", 0),
	}

	result, err := h.financeService.ListExpenses(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ApproveExpense implements FinanceHandler.
func (h *financeHandlerImpl) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	result, err := h.financeService.ApproveExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Expense approved", result)
}

// RejectExpense implements FinanceHandler.
func (h *financeHandlerImpl) RejectExpense(w http.ResponseWriter, r *http.Request) {
	result, err := h.financeService.RejectExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Expense rejected", result)
}

// DeleteExpense implements FinanceHandler.
func (h *financeHandlerImpl) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.financeService.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Expense deleted", nil)
}

// ========== REVENUES ==========

// CreateRevenue implements FinanceHandler.
func (h *financeHandlerImpl) CreateRevenue(w http.ResponseWriter, r *http.Request) {
	var req finance.CreateRevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode revenue", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.financeService.CreateRevenue(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Revenue recorded", result)
}

// ListRevenues implements FinanceHandler.
func (h *financeHandlerImpl) ListRevenues(w http.ResponseWriter, r *http.Request) {
	filter := finance.RevenueFilter{
		Category:  optionalQuery(r, "category"),
		StartDate: optionalQuery(r, "start_date"),
		EndDate:   optionalQuery(r, "end_date"),
		Page:      getIntQueryParam(r, "page", 0),
		Limit:     getIntQueryParam(r, "limit", 0),
	}

	result, err := h.financeService.ListRevenues(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// DeleteRevenue implements FinanceHandler.
func (h *financeHandlerImpl) DeleteRevenue(w http.ResponseWriter, r *http.Request) {
	if err := h.financeService.DeleteRevenue(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Revenue deleted", nil)
}

// Summary implements FinanceHandler.
func (h *financeHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	req := finance.SummaryRequest{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}

	result, err := h.financeService.Summary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
