package handler

import (
	"log"
	"net/http"

	"propertyflow-backend/internal/middleware"
	"propertyflow-backend/internal/service"
	"propertyflow-backend/pkg/pagination"
	"propertyflow-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	lineService    service.LineService // nil when LINE is not configured
}

func NewPaymentHandler(paymentService service.PaymentService, lineService service.LineService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, lineService: lineService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments", middleware.RequireAuth())
	{
		payments.POST("", h.CreatePayment)
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/verify", h.VerifyPayment)
		payments.POST("/:id/slips", h.AttachSlip)
		payments.DELETE("/:id/slips/:slipId", h.DeleteSlip)
	}
}

// CreatePayment records a payment against an invoice
// @Summary      Create payment
// @Description  Records a payment claim; auto_verify applies it immediately (cash desk)
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePaymentRequest  true  "Create Payment Payload"
// @Success      201      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// ListPayments returns payments with optional filters
// @Summary      List payments
// @Description  Retrieves a paginated list of payments with optional filters
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        invoice_id  query     string  false  "Filter by invoice ID"
// @Param        tenant_id   query     string  false  "Filter by tenant ID"
// @Param        status      query     string  false  "Filter by status (PENDING, VERIFIED, REJECTED)"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      500         {object}  response.Response
// @Router       /api/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	p := pagination.Parse(c)

	filter := service.ListPaymentsFilter{
		InvoiceID: c.Query("invoice_id"),
		TenantID:  c.Query("tenant_id"),
		Status:    c.Query("status"),
		Page:      p.Page,
		Limit:     p.Limit,
	}

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), middleware.CallerID(c), filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "payments", payments, total, p.Page, p.Limit))
}

// GetPayment returns one payment by ID
// @Summary      Get payment
// @Description  Retrieves a payment with its slips
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=service.PaymentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// VerifyPayment approves or rejects a pending payment
// @Summary      Verify payment
// @Description  Approves or rejects a PENDING payment; approval updates the invoice and may issue a receipt
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Payment ID"
// @Param        payload  body      service.VerifyPaymentRequest  true  "Verify Payload"
// @Success      200      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/payments/{id}/verify [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid payment ID")
		return
	}

	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	callerID := middleware.CallerID(c)
	payment, err := h.paymentService.VerifyPayment(c.Request.Context(), callerID, id, callerID, req.Approved)
	if err != nil {
		fail(c, err)
		return
	}

	if req.Approved && h.lineService != nil {
		// Best effort: a failed push must not fail the verification.
		if invoiceID, parseErr := uuid.Parse(payment.InvoiceID); parseErr == nil {
			if notifyErr := h.lineService.NotifyPaymentConfirmed(c.Request.Context(), callerID, invoiceID); notifyErr != nil {
				log.Printf("payment %s: confirmation push: %v", id, notifyErr)
			}
		}
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// AttachSlip uploads a transfer-proof image to a payment
// @Summary      Attach payment slip
// @Description  Uploads a base64 slip image and attaches it to the payment
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Payment ID"
// @Param        payload  body      service.AttachSlipRequest  true  "Slip Payload"
// @Success      200      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/payments/{id}/slips [post]
func (h *PaymentHandler) AttachSlip(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid payment ID")
		return
	}

	var req service.AttachSlipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	payment, err := h.paymentService.AttachSlip(c.Request.Context(), middleware.CallerID(c), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// DeleteSlip removes a slip from a payment
// @Summary      Delete payment slip
// @Description  Removes a slip image from a payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true  "Payment ID"
// @Param        slipId  path      string  true  "Slip ID"
// @Success      200     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /api/payments/{id}/slips/{slipId} [delete]
func (h *PaymentHandler) DeleteSlip(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid payment ID")
		return
	}
	slipID, err := uuid.Parse(c.Param("slipId"))
	if err != nil {
		badRequest(c, "Invalid slip ID")
		return
	}

	if err := h.paymentService.DeleteSlip(c.Request.Context(), middleware.CallerID(c), id, slipID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "slip deleted"}))
}
