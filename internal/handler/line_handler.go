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

type LineHandler struct {
	lineService service.LineService
}

func NewLineHandler(lineService service.LineService) *LineHandler {
	return &LineHandler{lineService: lineService}
}

func (h *LineHandler) RegisterRoutes(router *gin.RouterGroup) {
	line := router.Group("/api/line")
	{
		// Webhook authenticity comes from the platform signature checked
		// during parsing, not from a user session.
		line.POST("/webhook", h.Webhook)
		line.POST("/save-slip", middleware.RequireAuth(), h.SaveSlip)
		line.GET("/contacts", middleware.RequireAuth(), h.ListContacts)
		line.GET("/contacts/:id/messages", middleware.RequireAuth(), h.ListMessages)
	}

	liff := router.Group("/api/liff")
	{
		liff.POST("/submit-slip", h.SubmitSlip)
	}
}

// Webhook receives LINE platform events
// @Summary      LINE webhook
// @Description  Receives follow/unfollow and message events from the LINE platform
// @Tags         line
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/line/webhook [post]
func (h *LineHandler) Webhook(c *gin.Context) {
	if err := h.lineService.HandleWebhook(c.Request.Context(), c.Request); err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "ok"}))
}

// SaveSlip saves a chat image as a payment slip
// @Summary      Save chat slip
// @Description  Downloads a chat image by message ID and records it as a slip on the invoice
// @Tags         line
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SaveSlipRequest  true  "Save Slip Payload"
// @Success      200      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/line/save-slip [post]
func (h *LineHandler) SaveSlip(c *gin.Context) {
	var req service.SaveSlipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	payment, err := h.lineService.SaveSlip(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// SubmitSlip ingests a slip posted from the LIFF page
// @Summary      LIFF slip submission
// @Description  Accepts a base64 slip image posted by a tenant from the LIFF app
// @Tags         line
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LiffSlipRequest  true  "LIFF Slip Payload"
// @Success      200      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/liff/submit-slip [post]
func (h *LineHandler) SubmitSlip(c *gin.Context) {
	var req service.LiffSlipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	payment, err := h.lineService.SubmitLiffSlip(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// ListContacts returns LINE contacts
// @Summary      List LINE contacts
// @Description  Retrieves a paginated list of LINE contacts and their tenant links
// @Tags         line
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/line/contacts [get]
func (h *LineHandler) ListContacts(c *gin.Context) {
	p := pagination.Parse(c)

	contacts, total, err := h.lineService.ListContacts(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "contacts", contacts, total, p.Page, p.Limit))
}

// ListMessages returns the chat history for a contact
// @Summary      List contact messages
// @Description  Retrieves a paginated chat history for one LINE contact
// @Tags         line
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Contact ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      400    {object}  response.Response
// @Router       /api/line/contacts/{id}/messages [get]
func (h *LineHandler) ListMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid contact ID")
		return
	}

	p := pagination.Parse(c)
	messages, total, err := h.lineService.ListMessages(c.Request.Context(), id, p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "messages", messages, total, p.Page, p.Limit))
}
