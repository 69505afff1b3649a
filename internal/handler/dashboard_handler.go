package handler

import (
	"net/http"

	"propertyflow-backend/internal/middleware"
	"propertyflow-backend/internal/service"
	"propertyflow-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/api/dashboard", middleware.RequireAuth())
	{
		dashboard.GET("/summary", h.GetSummary)
	}
}

// GetSummary returns portfolio metrics for the caller
// @Summary      Dashboard summary
// @Description  Returns occupancy, outstanding balance, collections and invoice status counts
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DashboardSummary}
// @Failure      500  {object}  response.Response
// @Router       /api/dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.dashboardService.GetSummary(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
