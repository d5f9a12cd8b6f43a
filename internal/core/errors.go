package core

import "errors"

var (
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidMonth     = errors.New("invalid month: expected YYYY-MM")
	ErrInvalidDate      = errors.New("invalid date: expected YYYY-MM-DD")
)
