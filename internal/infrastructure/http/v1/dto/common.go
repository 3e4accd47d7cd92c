// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/entity"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
)

// --- Pagination ---

// ListQuery holds the common list query parameters.
type ListQuery struct {
	Search  string `form:"search"`
	Status  string `form:"status"`
	OrderBy string `form:"orderBy"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a domain filter.
func (q ListQuery) ToFilter() domain.ListFilter {
	f := domain.DefaultListFilter()
	f.Search = q.Search
	f.Status = q.Status
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Offset = q.Offset
	return f
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps a domain page with fn.
func NewListResponse[E, T any](r domain.ListResult[E], fn func(E) T) ListResponse[T] {
	items := make([]T, len(r.Items))
	for i, item := range r.Items {
		items[i] = fn(item)
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// --- Base DTOs ---

// StampsResponse contains the common audit fields.
type StampsResponse struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// FromStamps creates a StampsResponse.
func FromStamps(s entity.Stamps) StampsResponse {
	return StampsResponse{
		Version:   s.Version,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		CreatedBy: s.CreatedBy,
		UpdatedBy: s.UpdatedBy,
	}
}

// --- ID Response ---

// IDResponse for create operations that return only an identifier.
type IDResponse struct {
	ID any `json:"id"`
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
