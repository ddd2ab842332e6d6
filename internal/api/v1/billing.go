package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/service"
)

type BillingHandler struct {
	billingService service.BillingService
	reconciler     service.ReconcilerService
	logger         *logger.Logger
}

func NewBillingHandler(billingService service.BillingService, reconciler service.ReconcilerService, logger *logger.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		reconciler:     reconciler,
		logger:         logger,
	}
}

// UpgradePlan godoc
// @Summary Open a plan upgrade checkout
// @Description Open a provider checkout for a paid plan
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.UpgradePlanRequest true "Upgrade request"
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /billing/plan [post]
func (h *BillingHandler) UpgradePlan(c *gin.Context) {
	var req dto.UpgradePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.billingService.UpgradePlan(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PurchaseCredits godoc
// @Summary Open a credit purchase checkout
// @Description Open a provider checkout for a one-off credit package
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.PurchaseCreditsRequest true "Purchase request"
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /billing/credits [post]
func (h *BillingHandler) PurchaseCredits(c *gin.Context) {
	var req dto.PurchaseCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.billingService.PurchaseCredits(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetPaymentHistory godoc
// @Summary List payment history
// @Description List reconciled provider payments for the account
// @Tags Billing
// @Produce json
// @Param limit query int false "Max records to return"
// @Success 200 {object} dto.ListPaymentRecordsResponse
// @Failure 500 {object} ErrorResponse
// @Router /billing/history [get]
func (h *BillingHandler) GetPaymentHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.billingService.GetPaymentHistory(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleNotification godoc
// @Summary Receive a provider payment notification
// @Description Verify and reconcile an inbound payment notification
// @Tags Billing
// @Accept json
// @Produce json
// @Param x-signature header string true "Notification signature"
// @Param x-request-id header string true "Notification request id"
// @Success 200 {object} map[string]string
// @Failure 401 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /billing/webhook [post]
func (h *BillingHandler) HandleNotification(c *gin.Context) {
	var notification dto.ProviderNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid notification payload", err)
		return
	}

	xSignature := c.GetHeader("X-Signature")
	xRequestID := c.GetHeader("X-Request-Id")

	err := h.reconciler.ProcessNotification(c.Request.Context(), &notification, xSignature, xRequestID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
