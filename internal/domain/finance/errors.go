package finance

import "errors"

var (
	ErrCategoryNotFound   = errors.New("expense category not found")
	ErrCategoryNameExists = errors.New("expense category with this name already exists")
	ErrCategoryInactive   = errors.New("expense category is inactive")
	ErrExpenseNotFound    = errors.New("expense not found")
	ErrExpenseNotPending  = errors.New("expense has already been decided")
	ErrRevenueNotFound    = errors.New("revenue not found")
)
