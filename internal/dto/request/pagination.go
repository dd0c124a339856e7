package request

import "clothing-store/pkg/utils"

type PaginatedRequest struct {
	Skip     int `json:"skip" validate:"min=0"`
	PageSize int `json:"limit" validate:"min=1,max=100"`
}

func (p PaginatedRequest) Offset() int {
	return utils.ClampSkip(p.Skip)
}

func (p PaginatedRequest) Limit() int {
	return utils.ClampLimit(p.PageSize)
}
