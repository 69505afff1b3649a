package handler

import (
	"net/http"

	"propertyflow-backend/internal/middleware"
	"propertyflow-backend/internal/render"
	"propertyflow-backend/internal/service"
	"propertyflow-backend/pkg/pagination"
	"propertyflow-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	lineService    service.LineService // nil when LINE is not configured
	renderer       render.Renderer
}

func NewInvoiceHandler(invoiceService service.InvoiceService, lineService service.LineService, renderer render.Renderer) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		lineService:    lineService,
		renderer:       renderer,
	}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices", middleware.RequireAuth())
	{
		invoices.POST("", h.CreateInvoice)
		invoices.POST("/bulk", h.BulkCreateInvoices)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.POST("/:id/cancel", h.CancelInvoice)
		invoices.GET("/:id/image", h.GetInvoiceImage)
		invoices.POST("/:id/notify", h.NotifyInvoice)
	}
}

// CreateInvoice issues a single invoice for a unit's current tenant
// @Summary      Create invoice
// @Description  Issues an invoice for the unit's current tenant and billing month
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Create Invoice Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// BulkCreateInvoices issues invoices for all active tenants of a project
// @Summary      Bulk create invoices
// @Description  Issues one invoice per active tenant of the project; duplicates are skipped
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BulkCreateInvoicesRequest  true  "Bulk Create Payload"
// @Success      201      {object}  response.Response{data=service.BulkCreateInvoicesResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/bulk [post]
func (h *InvoiceHandler) BulkCreateInvoices(c *gin.Context) {
	var req service.BulkCreateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	result, err := h.invoiceService.BulkCreateInvoices(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListInvoices returns invoices with optional filters
// @Summary      List invoices
// @Description  Retrieves a paginated list of invoices with optional filters
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        project_id     query     string  false  "Filter by project ID"
// @Param        unit_id        query     string  false  "Filter by unit ID"
// @Param        tenant_id      query     string  false  "Filter by tenant ID"
// @Param        status         query     string  false  "Filter by status (PENDING, PARTIAL, PAID, OVERDUE, CANCELLED)"
// @Param        billing_month  query     string  false  "Filter by billing month (YYYY-MM)"
// @Param        page           query     int     false  "Page number (default 1)"
// @Param        limit          query     int     false  "Number of items per page (default 20)"
// @Success      200            {object}  response.Response{data=object}
// @Failure      500            {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	p := pagination.Parse(c)

	filter := service.ListInvoicesFilter{
		ProjectID:    c.Query("project_id"),
		UnitID:       c.Query("unit_id"),
		TenantID:     c.Query("tenant_id"),
		Status:       c.Query("status"),
		BillingMonth: c.Query("billing_month"),
		Page:         p.Page,
		Limit:        p.Limit,
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), middleware.CallerID(c), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "invoices", invoices, total, p.Page, p.Limit))
}

// GetInvoice returns one invoice by ID
// @Summary      Get invoice
// @Description  Retrieves an invoice with its line items
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// CancelInvoice cancels an unpaid invoice
// @Summary      Cancel invoice
// @Description  Cancels a PENDING or OVERDUE invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// GetInvoiceImage renders the invoice card as a PNG
// @Summary      Invoice card image
// @Description  Renders the invoice as a share-ready PNG card
// @Tags         invoices
// @Security     BearerAuth
// @Produce      png
// @Param        id    path      string  true   "Invoice ID"
// @Param        lang  query     string  false  "Card language: en or th (default en)"
// @Success      200   {file}    binary
// @Failure      404   {object}  response.Response
// @Router       /api/invoices/{id}/image [get]
func (h *InvoiceHandler) GetInvoiceImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid invoice ID")
		return
	}

	invoice, project, err := h.invoiceService.GetInvoiceModel(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	card := render.InvoiceCard(invoice, project, c.DefaultQuery("lang", "en"))
	png, err := h.renderer.RenderPNG(c.Request.Context(), card)
	if err != nil {
		fail(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// NotifyInvoice pushes the invoice card to the tenant's LINE chat
// @Summary      Notify tenant
// @Description  Pushes the rendered invoice card and a text summary to the tenant's LINE chat
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string  true   "Invoice ID"
// @Param        lang  query     string  false  "Message language: en or th (default th)"
// @Success      200   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Router       /api/invoices/{id}/notify [post]
func (h *InvoiceHandler) NotifyInvoice(c *gin.Context) {
	if h.lineService == nil {
		badRequest(c, "LINE messaging is not configured")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.lineService.NotifyInvoice(c.Request.Context(), middleware.CallerID(c), id, c.DefaultQuery("lang", "th")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "notification sent"}))
}
