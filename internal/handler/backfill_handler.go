package handler

import (
	"net/http"

	"propertyflow-backend/internal/middleware"
	"propertyflow-backend/internal/service"
	"propertyflow-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type BackfillHandler struct {
	backfillService service.BackfillService
}

func NewBackfillHandler(backfillService service.BackfillService) *BackfillHandler {
	return &BackfillHandler{backfillService: backfillService}
}

func (h *BackfillHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin/backfill", middleware.RequireRole("admin"))
	{
		admin.POST("/invoices", h.BackfillInvoices)
		admin.POST("/payments", h.BackfillPayments)
		admin.POST("/receipts", h.BackfillReceipts)
	}
}

// BackfillInvoices populates missing tenant snapshots on invoices
// @Summary      Backfill invoice snapshots
// @Description  Copies tenant data onto invoices whose snapshot is empty; idempotent
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.BackfillResult}
// @Failure      403  {object}  response.Response
// @Router       /api/admin/backfill/invoices [post]
func (h *BackfillHandler) BackfillInvoices(c *gin.Context) {
	result, err := h.backfillService.BackfillInvoices(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// BackfillPayments populates missing snapshots on payments
// @Summary      Backfill payment snapshots
// @Description  Copies invoice snapshot data onto payments whose snapshot is empty; idempotent
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.BackfillResult}
// @Failure      403  {object}  response.Response
// @Router       /api/admin/backfill/payments [post]
func (h *BackfillHandler) BackfillPayments(c *gin.Context) {
	result, err := h.backfillService.BackfillPayments(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// BackfillReceipts populates missing snapshots on receipts
// @Summary      Backfill receipt snapshots
// @Description  Copies invoice snapshot data onto receipts whose snapshot is empty; idempotent
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.BackfillResult}
// @Failure      403  {object}  response.Response
// @Router       /api/admin/backfill/receipts [post]
func (h *BackfillHandler) BackfillReceipts(c *gin.Context) {
	result, err := h.backfillService.BackfillReceipts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
