package httpapi

import (
	"net/http"

	"village-connect/internal/service"

	"go.uber.org/zap"
)

// AnalyticsHandler 统计 Handler
type AnalyticsHandler struct {
	analytics service.AnalyticsService
	logger    *zap.Logger
}

// NewAnalyticsHandler 创建统计 Handler
func NewAnalyticsHandler(analytics service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    logger,
	}
}

// TotalStats 汇总统计：GET /api/analytics/stats
func (h *AnalyticsHandler) TotalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.TotalStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// LocationStats 位置分布：GET /api/analytics/location
func (h *AnalyticsHandler) LocationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.LocationStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// OccupationStats 职业分布：GET /api/analytics/occupation
func (h *AnalyticsHandler) OccupationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.OccupationStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
