package handler

import (
	"net/http"

	"propertyflow-backend/internal/middleware"
	"propertyflow-backend/internal/service"
	"propertyflow-backend/pkg/pagination"
	"propertyflow-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MeterReadingHandler struct {
	meterService service.MeterReadingService
}

func NewMeterReadingHandler(meterService service.MeterReadingService) *MeterReadingHandler {
	return &MeterReadingHandler{meterService: meterService}
}

func (h *MeterReadingHandler) RegisterRoutes(router *gin.RouterGroup) {
	readings := router.Group("/api/meter-readings", middleware.RequireAuth())
	{
		readings.POST("", h.CreateReading)
		readings.GET("", h.ListReadings)
	}
}

// CreateReading records a meter reading for a unit and billing month
// @Summary      Create meter reading
// @Description  Records a metered period; usage and amount are computed on creation
// @Tags         meter-readings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateMeterReadingRequest  true  "Create Meter Reading Payload"
// @Success      201      {object}  response.Response{data=service.MeterReadingResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/meter-readings [post]
func (h *MeterReadingHandler) CreateReading(c *gin.Context) {
	var req service.CreateMeterReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	reading, err := h.meterService.CreateReading(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, reading))
}

// ListReadings returns meter readings with optional filters
// @Summary      List meter readings
// @Description  Retrieves a paginated list of meter readings, optionally filtered by unit and billing month
// @Tags         meter-readings
// @Security     BearerAuth
// @Produce      json
// @Param        unit_id        query     string  false  "Filter by unit ID"
// @Param        billing_month  query     string  false  "Filter by billing month (YYYY-MM)"
// @Param        page           query     int     false  "Page number (default 1)"
// @Param        limit          query     int     false  "Number of items per page (default 20)"
// @Success      200            {object}  response.Response{data=object}
// @Failure      500            {object}  response.Response
// @Router       /api/meter-readings [get]
func (h *MeterReadingHandler) ListReadings(c *gin.Context) {
	p := pagination.Parse(c)

	var unitID *uuid.UUID
	if raw := c.Query("unit_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "Invalid unit_id filter")
			return
		}
		unitID = &id
	}

	readings, total, err := h.meterService.ListReadings(c.Request.Context(), middleware.CallerID(c),
		unitID, c.Query("billing_month"), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "meter_readings", readings, total, p.Page, p.Limit))
}
