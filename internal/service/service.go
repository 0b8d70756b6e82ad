// Package service holds the business rules that sit between HTTP handlers and repositories.
package service

import (
	"errors"

	"inkwell/internal/models"
)

// Pagination limits.
const (
	DefaultPageSize = 100
	MaxPageSize     = 100
	// MaxPage keeps the offset well inside a signed 32-bit integer.
	MaxPage = 1 << 20
)

// Pagination is a 1-based page-number request.
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) normalized() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Limit is the page size.
func (p Pagination) Limit() int { return p.normalized().PageSize }

// Offset is the number of rows before the page.
func (p Pagination) Offset() int {
	n := p.normalized()
	return (n.Page - 1) * n.PageSize
}

func isNotFound(err error) bool {
	var appErr *models.AppError
	return errors.As(err, &appErr) && appErr.Code == models.CodeNotFound
}

// notFoundAs rewrites a not-found error to msg and passes anything else through.
func notFoundAs(err error, msg string) error {
	if isNotFound(err) {
		return models.NewNotFoundMessage(msg)
	}
	return err
}
