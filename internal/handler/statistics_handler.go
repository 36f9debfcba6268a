package handler

import (
	"net/http"

	"logiflow/internal/middleware"
	"logiflow/internal/service"
	"logiflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/api/stats")
	{
		statsGroup.GET("", middleware.RequirePermission(service.PermDashboardRead), h.GetStatistics)
	}
}

// @Summary      Get Dashboard Statistics
// @Description  Order, delivery and reconciliation counts, BL and invoice totals, DLC alerts of the visible stores
// @Tags         Statistics
// @Security     SessionCookie
// @Produce      json
// @Param        storeId    query     int     false  "Store"
// @Param        startDate  query     string  false  "Period start (YYYY-MM-DD)"
// @Param        endDate    query     string  false  "Period end (YYYY-MM-DD)"
// @Success      200        {object}  response.Response{data=model.DashboardStats}
// @Failure      400        {object}  response.Response "Invalid date format"
// @Failure      401        {object}  response.Response "Unauthorized"
// @Router       /api/stats [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	r, ok := requester(c)
	if !ok {
		return
	}
	var q service.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	stats, err := h.statisticsService.GetDashboard(c.Request.Context(), r, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
