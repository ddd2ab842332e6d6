package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/service"
)

type ClientHandler struct {
	clientService service.ClientService
	logger        *logger.Logger
}

func NewClientHandler(clientService service.ClientService, logger *logger.Logger) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		logger:        logger,
	}
}

// CreateClient godoc
// @Summary Create a client
// @Description Create a marketing client, gated by the plan's allowance
// @Tags Client
// @Accept json
// @Produce json
// @Param request body dto.CreateClientRequest true "Create client request"
// @Success 201 {object} dto.ClientResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.clientService.CreateClient(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetClient godoc
// @Summary Get a client
// @Description Get a client by id
// @Tags Client
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} dto.ClientResponse
// @Failure 404 {object} ErrorResponse
// @Router /clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		NewErrorResponse(c, http.StatusBadRequest, "id is required", nil)
		return
	}

	resp, err := h.clientService.GetClient(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListClients godoc
// @Summary List clients
// @Description List the account's clients
// @Tags Client
// @Produce json
// @Success 200 {object} dto.ListClientsResponse
// @Failure 500 {object} ErrorResponse
// @Router /clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	resp, err := h.clientService.ListClients(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteClient godoc
// @Summary Delete a client
// @Description Soft delete a client
// @Tags Client
// @Produce json
// @Param id path string true "Client ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		NewErrorResponse(c, http.StatusBadRequest, "id is required", nil)
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
