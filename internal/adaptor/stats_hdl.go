package adaptor

import (
	"net/http"
	"strconv"

	"clothing-store/internal/dto/request"
	"clothing-store/internal/usecase"
	"clothing-store/pkg/utils"

	"go.uber.org/zap"
)

const defaultTopProducts = 10

type StatsHandler struct {
	service usecase.StatsService
	log     *zap.Logger
}

func NewStatsHandler(service usecase.StatsService, log *zap.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		log:     log.With(zap.String("handler", "stats")),
	}
}

// SalesByCategory handles GET /stats/sales-by-category
func (h *StatsHandler) SalesByCategory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.SalesByCategory(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "sales by category")
		return
	}

	utils.ResponseSuccess(w, "Sales by category retrieved successfully", rows)
}

// RevenueByMonth handles GET /stats/revenue-by-month
func (h *StatsHandler) RevenueByMonth(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.RevenueByMonth(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "revenue by month")
		return
	}

	utils.ResponseSuccess(w, "Revenue by month retrieved successfully", rows)
}

// TopProducts handles GET /stats/top-products?limit=10
func (h *StatsHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	req := request.TopProductsRequest{Limit: defaultTopProducts}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			utils.ResponseBadRequest(w, "limit must be an integer", nil)
			return
		}
		req.Limit = limit
	}

	rows, err := h.service.TopProducts(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "top products")
		return
	}

	utils.ResponseSuccess(w, "Top products retrieved successfully", rows)
}
