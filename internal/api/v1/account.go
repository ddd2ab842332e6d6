package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/service"
)

type AccountHandler struct {
	accountService service.AccountService
	creditService  service.CreditService
	logger         *logger.Logger
}

func NewAccountHandler(accountService service.AccountService, creditService service.CreditService, logger *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		creditService:  creditService,
		logger:         logger,
	}
}

// SignUp godoc
// @Summary Create a new account
// @Description Create a new tenant account on the free plan
// @Tags Account
// @Accept json
// @Produce json
// @Param request body dto.SignUpRequest true "Sign up request"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.accountService.SignUp(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetAccount godoc
// @Summary Get the current account
// @Description Get the caller's tenant account
// @Tags Account
// @Produce json
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ErrorResponse
// @Router /account [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	resp, err := h.accountService.GetAccount(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBalance godoc
// @Summary Get the credit balance
// @Description Get the real-time credit balance for the current period
// @Tags Credits
// @Produce json
// @Success 200 {object} dto.BalanceResponse
// @Failure 404 {object} ErrorResponse
// @Router /credits/balance [get]
func (h *AccountHandler) GetBalance(c *gin.Context) {
	resp, err := h.creditService.GetBalance(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetLedger godoc
// @Summary List credit ledger entries
// @Description List recent credit ledger entries for the account
// @Tags Credits
// @Produce json
// @Param limit query int false "Max entries to return"
// @Success 200 {object} dto.ListLedgerResponse
// @Failure 500 {object} ErrorResponse
// @Router /credits/ledger [get]
func (h *AccountHandler) GetLedger(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.creditService.GetLedger(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
