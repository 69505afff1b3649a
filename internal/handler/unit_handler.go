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

type UnitHandler struct {
	unitService service.UnitService
}

func NewUnitHandler(unitService service.UnitService) *UnitHandler {
	return &UnitHandler{unitService: unitService}
}

func (h *UnitHandler) RegisterRoutes(router *gin.RouterGroup) {
	units := router.Group("/api/units", middleware.RequireAuth())
	{
		units.POST("", h.CreateUnit)
		units.GET("", h.ListUnits)
		units.GET("/:id", h.GetUnit)
		units.PUT("/:id", h.UpdateUnit)
		units.DELETE("/:id", h.DeleteUnit)
	}
}

// CreateUnit creates a new unit
// @Summary      Create unit
// @Description  Creates a rentable unit inside a project
// @Tags         units
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateUnitRequest  true  "Create Unit Payload"
// @Success      201      {object}  response.Response{data=service.UnitResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/units [post]
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	var req service.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	unit, err := h.unitService.CreateUnit(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, unit))
}

// ListUnits returns units, optionally filtered by project
// @Summary      List units
// @Description  Retrieves a paginated list of units, optionally filtered by project
// @Tags         units
// @Security     BearerAuth
// @Produce      json
// @Param        project_id  query     string  false  "Filter by project ID"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      500         {object}  response.Response
// @Router       /api/units [get]
func (h *UnitHandler) ListUnits(c *gin.Context) {
	p := pagination.Parse(c)

	var projectID *uuid.UUID
	if raw := c.Query("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "Invalid project_id filter")
			return
		}
		projectID = &id
	}

	units, total, err := h.unitService.ListUnits(c.Request.Context(), middleware.CallerID(c), projectID, p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "units", units, total, p.Page, p.Limit))
}

// GetUnit returns one unit by ID
// @Summary      Get unit
// @Description  Retrieves a unit by ID
// @Tags         units
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Unit ID"
// @Success      200  {object}  response.Response{data=service.UnitResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/units/{id} [get]
func (h *UnitHandler) GetUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid unit ID")
		return
	}

	unit, err := h.unitService.GetUnit(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// UpdateUnit updates a unit
// @Summary      Update unit
// @Description  Updates the named fields of a unit
// @Tags         units
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Unit ID"
// @Param        payload  body      service.UpdateUnitRequest  true  "Update Unit Payload"
// @Success      200      {object}  response.Response{data=service.UnitResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/units/{id} [put]
func (h *UnitHandler) UpdateUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid unit ID")
		return
	}

	var req service.UpdateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	unit, err := h.unitService.UpdateUnit(c.Request.Context(), middleware.CallerID(c), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// DeleteUnit removes a unit
// @Summary      Delete unit
// @Description  Soft-deletes a unit by ID
// @Tags         units
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Unit ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/units/{id} [delete]
func (h *UnitHandler) DeleteUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid unit ID")
		return
	}

	if err := h.unitService.DeleteUnit(c.Request.Context(), middleware.CallerID(c), id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "unit deleted"}))
}
