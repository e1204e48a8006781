package request

import (
	"net/url"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"
)

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"perPage" validate:"min=1,max=100"`
}

// PaginationFromQuery reads page and limit, defaulting to 1 and 10.
func PaginationFromQuery(q url.Values) PaginatedRequest {
	return PaginatedRequest{
		Page:    utils.ParseInt(q.Get("page"), 1),
		PerPage: utils.ParseInt(q.Get("limit"), 10),
	}
}

func (p PaginatedRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return 10
	}
	if p.PerPage > 100 {
		return 100
	}
	return p.PerPage
}
