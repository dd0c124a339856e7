package adaptor

import (
	"net/http"

	"clothing-store/internal/dto/request"
	"clothing-store/pkg/utils"
)

// parsePagination reads skip and limit. Out of range values fall back to the
// defaults and are clamped later by the request helpers.
func parsePagination(r *http.Request) request.PaginatedRequest {
	q := r.URL.Query()
	return request.PaginatedRequest{
		Skip:     utils.ParseNonNegativeInt(q.Get("skip"), 0),
		PageSize: utils.ParseInt(q.Get("limit"), utils.DefaultPageLimit),
	}
}
