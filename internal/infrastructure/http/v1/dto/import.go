package dto

import (
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/streamimport"
)

// ImportErrorQuery filters stored import errors.
type ImportErrorQuery struct {
	ImportID string `form:"importId"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into an error filter.
func (q ImportErrorQuery) ToFilter() (streamimport.ErrorFilter, error) {
	f := streamimport.ErrorFilter{Limit: q.Limit, Offset: q.Offset}
	if f.Limit == 0 {
		f.Limit = 100
	}
	importID, err := id.ParseOptional(q.ImportID)
	if err != nil {
		return streamimport.ErrorFilter{}, err
	}
	f.ImportID = importID
	return f, nil
}

// ClearErrorsResponse reports how many stored errors were removed.
type ClearErrorsResponse struct {
	Deleted int64 `json:"deleted"`
}
