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

type TenantHandler struct {
	tenantService service.TenantService
}

func NewTenantHandler(tenantService service.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

func (h *TenantHandler) RegisterRoutes(router *gin.RouterGroup) {
	tenants := router.Group("/api/tenants", middleware.RequireAuth())
	{
		tenants.POST("", h.CreateTenant)
		tenants.GET("", h.ListTenants)
		tenants.GET("/:id", h.GetTenant)
		tenants.PUT("/:id", h.UpdateTenant)
		tenants.DELETE("/:id", h.DeleteTenant)
	}
}

// CreateTenant creates a new tenant
// @Summary      Create tenant
// @Description  Creates a tenant with rental terms for a unit
// @Tags         tenants
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTenantRequest  true  "Create Tenant Payload"
// @Success      201      {object}  response.Response{data=service.TenantResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/tenants [post]
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req service.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	tenant, err := h.tenantService.CreateTenant(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tenant))
}

// ListTenants returns tenants, optionally filtered by unit
// @Summary      List tenants
// @Description  Retrieves a paginated list of tenants, optionally filtered by unit
// @Tags         tenants
// @Security     BearerAuth
// @Produce      json
// @Param        unit_id  query     string  false  "Filter by unit ID"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Success      200      {object}  response.Response{data=object}
// @Failure      500      {object}  response.Response
// @Router       /api/tenants [get]
func (h *TenantHandler) ListTenants(c *gin.Context) {
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

	tenants, total, err := h.tenantService.ListTenants(c.Request.Context(), middleware.CallerID(c), unitID, p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "tenants", tenants, total, p.Page, p.Limit))
}

// GetTenant returns one tenant by ID
// @Summary      Get tenant
// @Description  Retrieves a tenant by ID
// @Tags         tenants
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tenant ID"
// @Success      200  {object}  response.Response{data=service.TenantResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/tenants/{id} [get]
func (h *TenantHandler) GetTenant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid tenant ID")
		return
	}

	tenant, err := h.tenantService.GetTenant(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tenant))
}

// UpdateTenant updates a tenant
// @Summary      Update tenant
// @Description  Updates the named fields of a tenant
// @Tags         tenants
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Tenant ID"
// @Param        payload  body      service.UpdateTenantRequest  true  "Update Tenant Payload"
// @Success      200      {object}  response.Response{data=service.TenantResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/tenants/{id} [put]
func (h *TenantHandler) UpdateTenant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid tenant ID")
		return
	}

	var req service.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	tenant, err := h.tenantService.UpdateTenant(c.Request.Context(), middleware.CallerID(c), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tenant))
}

// DeleteTenant removes a tenant
// @Summary      Delete tenant
// @Description  Soft-deletes a tenant by ID; frees the unit if it was the last occupant
// @Tags         tenants
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Tenant ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/tenants/{id} [delete]
func (h *TenantHandler) DeleteTenant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid tenant ID")
		return
	}

	if err := h.tenantService.DeleteTenant(c.Request.Context(), middleware.CallerID(c), id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "tenant deleted"}))
}
