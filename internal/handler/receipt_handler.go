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

type ReceiptHandler struct {
	receiptService service.ReceiptService
	renderer       render.Renderer
}

func NewReceiptHandler(receiptService service.ReceiptService, renderer render.Renderer) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService, renderer: renderer}
}

func (h *ReceiptHandler) RegisterRoutes(router *gin.RouterGroup) {
	receipts := router.Group("/api/receipts", middleware.RequireAuth())
	{
		receipts.GET("", h.ListReceipts)
		receipts.GET("/:id", h.GetReceipt)
		receipts.PATCH("/:id", h.UpdateReceipt)
		receipts.DELETE("/:id", h.DeleteReceipt)
		receipts.GET("/:id/image", h.GetReceiptImage)
	}
}

// ListReceipts returns receipts, optionally filtered by invoice
// @Summary      List receipts
// @Description  Retrieves a paginated list of receipts, optionally filtered by invoice
// @Tags         receipts
// @Security     BearerAuth
// @Produce      json
// @Param        invoice_id  query     string  false  "Filter by invoice ID"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      500         {object}  response.Response
// @Router       /api/receipts [get]
func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
	p := pagination.Parse(c)

	receipts, total, err := h.receiptService.ListReceipts(c.Request.Context(), middleware.CallerID(c),
		c.Query("invoice_id"), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "receipts", receipts, total, p.Page, p.Limit))
}

// GetReceipt returns one receipt by ID
// @Summary      Get receipt
// @Description  Retrieves a receipt by ID
// @Tags         receipts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Receipt ID"
// @Success      200  {object}  response.Response{data=service.ReceiptResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/receipts/{id} [get]
func (h *ReceiptHandler) GetReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.receiptService.GetReceipt(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, receipt))
}

// UpdateReceipt edits a receipt's note
// @Summary      Update receipt
// @Description  Updates the receipt note; numbers and amounts are immutable
// @Tags         receipts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Receipt ID"
// @Param        payload  body      service.UpdateReceiptRequest  true  "Update Receipt Payload"
// @Success      200      {object}  response.Response{data=service.ReceiptResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/receipts/{id} [patch]
func (h *ReceiptHandler) UpdateReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid receipt ID")
		return
	}

	var req service.UpdateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	receipt, err := h.receiptService.UpdateReceipt(c.Request.Context(), middleware.CallerID(c), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, receipt))
}

// DeleteReceipt removes a receipt issued in error
// @Summary      Delete receipt
// @Description  Deletes a receipt and recomputes the invoice's paid state
// @Tags         receipts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Receipt ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/receipts/{id} [delete]
func (h *ReceiptHandler) DeleteReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid receipt ID")
		return
	}

	if err := h.receiptService.DeleteReceipt(c.Request.Context(), middleware.CallerID(c), id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "receipt deleted"}))
}

// GetReceiptImage renders the receipt card as a PNG
// @Summary      Receipt card image
// @Description  Renders the receipt as a share-ready PNG card
// @Tags         receipts
// @Security     BearerAuth
// @Produce      png
// @Param        id    path      string  true   "Receipt ID"
// @Param        lang  query     string  false  "Card language: en or th (default en)"
// @Success      200   {file}    binary
// @Failure      404   {object}  response.Response
// @Router       /api/receipts/{id}/image [get]
func (h *ReceiptHandler) GetReceiptImage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid receipt ID")
		return
	}

	receipt, project, err := h.receiptService.GetReceiptModel(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	card := render.ReceiptCard(receipt, project, c.DefaultQuery("lang", "en"))
	png, err := h.renderer.RenderPNG(c.Request.Context(), card)
	if err != nil {
		fail(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
