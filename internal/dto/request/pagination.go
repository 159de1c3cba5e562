package request

import "krishi-setu/pkg/utils"

const (
	defaultPerPage = 10
	maxPerPage     = 100
	maxPage        = 1_000_000 // keeps the offset far from int overflow
)

type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// NewPaginatedRequest reads raw query values, falling back to page 1 of 10.
func NewPaginatedRequest(page, perPage string) PaginatedRequest {
	return PaginatedRequest{
		Page:    min(utils.ParseInt(page, 1), maxPage),
		PerPage: utils.ParseInt(perPage, defaultPerPage),
	}
}

func (p PaginatedRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (min(p.Page, maxPage) - 1) * p.Limit()
}

func (p PaginatedRequest) Limit() int {
	if p.PerPage < 1 {
		return defaultPerPage
	}
	if p.PerPage > maxPerPage {
		return maxPerPage
	}
	return p.PerPage
}
