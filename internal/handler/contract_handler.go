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

type ContractHandler struct {
	contractService service.ContractService
}

func NewContractHandler(contractService service.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

func (h *ContractHandler) RegisterRoutes(router *gin.RouterGroup) {
	contracts := router.Group("/api/contracts", middleware.RequireAuth())
	{
		contracts.POST("", h.CreateContract)
		contracts.GET("", h.ListContracts)
		contracts.GET("/:id", h.GetContract)
		contracts.PUT("/:id", h.UpdateContract)
		contracts.DELETE("/:id", h.DeleteContract)
		contracts.POST("/:id/send", h.SendForSignature)
		contracts.POST("/:id/countersign", h.Countersign)
	}

	// Public signing surface; the token is the credential.
	sign := router.Group("/api/sign")
	{
		sign.GET("/:token", h.GetByToken)
		sign.POST("/:token", h.SignByToken)
	}
}

// CreateContract creates a draft lease contract
// @Summary      Create contract
// @Description  Creates a DRAFT lease contract for a unit and tenant
// @Tags         contracts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateContractRequest  true  "Create Contract Payload"
// @Success      201      {object}  response.Response{data=service.ContractResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/contracts [post]
func (h *ContractHandler) CreateContract(c *gin.Context) {
	var req service.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	contract, err := h.contractService.CreateContract(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, contract))
}

// ListContracts returns contracts, optionally filtered by status
// @Summary      List contracts
// @Description  Retrieves a paginated list of lease contracts
// @Tags         contracts
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by status (DRAFT, AWAITING_SIGNATURE, SIGNED)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/contracts [get]
func (h *ContractHandler) ListContracts(c *gin.Context) {
	p := pagination.Parse(c)

	contracts, total, err := h.contractService.ListContracts(c.Request.Context(), middleware.CallerID(c),
		c.Query("status"), p.Page, p.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, "contracts", contracts, total, p.Page, p.Limit))
}

// GetContract returns one contract by ID
// @Summary      Get contract
// @Description  Retrieves a lease contract by ID
// @Tags         contracts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  response.Response{data=service.ContractResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/contracts/{id} [get]
func (h *ContractHandler) GetContract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.contractService.GetContract(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// UpdateContract edits a draft contract
// @Summary      Update contract
// @Description  Updates a DRAFT contract's terms
// @Tags         contracts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Contract ID"
// @Param        payload  body      service.UpdateContractRequest  true  "Update Contract Payload"
// @Success      200      {object}  response.Response{data=service.ContractResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/contracts/{id} [put]
func (h *ContractHandler) UpdateContract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid contract ID")
		return
	}

	var req service.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	contract, err := h.contractService.UpdateContract(c.Request.Context(), middleware.CallerID(c), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// DeleteContract removes a draft contract
// @Summary      Delete contract
// @Description  Deletes a DRAFT contract
// @Tags         contracts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/contracts/{id} [delete]
func (h *ContractHandler) DeleteContract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid contract ID")
		return
	}

	if err := h.contractService.DeleteContract(c.Request.Context(), middleware.CallerID(c), id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "contract deleted"}))
}

// SendForSignature mints a signing link for the tenant
// @Summary      Send for signature
// @Description  Mints a time-limited signing token and returns the public signing URL
// @Tags         contracts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Contract ID"
// @Success      200  {object}  response.Response{data=service.ContractResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/contracts/{id}/send [post]
func (h *ContractHandler) SendForSignature(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.contractService.SendForSignature(c.Request.Context(), middleware.CallerID(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// Countersign stores the owner's signature on a contract
// @Summary      Countersign contract
// @Description  Stores the owner's signature image on the contract
// @Tags         contracts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Contract ID"
// @Param        payload  body      service.SignContractRequest  true  "Signature Payload"
// @Success      200      {object}  response.Response{data=service.ContractResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/contracts/{id}/countersign [post]
func (h *ContractHandler) Countersign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid contract ID")
		return
	}

	var req service.SignContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	contract, err := h.contractService.Countersign(c.Request.Context(), middleware.CallerID(c), id, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// GetByToken resolves a contract from its public signing token
// @Summary      View contract by token
// @Description  Returns the contract a signing token points to; 410 once the token expired
// @Tags         sign
// @Produce      json
// @Param        token  path      string  true  "Signing token"
// @Success      200    {object}  response.Response{data=service.ContractResponse}
// @Failure      410    {object}  response.Response
// @Router       /api/sign/{token} [get]
func (h *ContractHandler) GetByToken(c *gin.Context) {
	contract, err := h.contractService.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}

// SignByToken signs a contract through its public token
// @Summary      Sign contract by token
// @Description  Stores the tenant's signature image and marks the contract SIGNED
// @Tags         sign
// @Accept       json
// @Produce      json
// @Param        token    path      string                       true  "Signing token"
// @Param        payload  body      service.SignContractRequest  true  "Signature Payload"
// @Success      200      {object}  response.Response{data=service.ContractResponse}
// @Failure      410      {object}  response.Response
// @Router       /api/sign/{token} [post]
func (h *ContractHandler) SignByToken(c *gin.Context) {
	var req service.SignContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	contract, err := h.contractService.SignByToken(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}
