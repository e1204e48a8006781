package response

import "github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalPages int   `json:"totalPages"`
}

func NewPaginationMeta(page, perPage int, total int64) PaginationMeta {
	return PaginationMeta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: utils.CalculateTotalPages(total, perPage),
	}
}
