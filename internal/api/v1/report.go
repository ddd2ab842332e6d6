package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/logger"
	"github.com/reportik/reportik/internal/service"
)

type ReportHandler struct {
	reportService service.ReportService
	logger        *logger.Logger
}

func NewReportHandler(reportService service.ReportService, logger *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// CreateReport godoc
// @Summary Generate a report
// @Description Generate an AI summary report for a client over a period
// @Tags Report
// @Accept json
// @Produce json
// @Param request body dto.CreateReportRequest true "Create report request"
// @Success 201 {object} dto.ReportResponse
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /reports [post]
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		NewErrorResponse(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	resp, err := h.reportService.CreateReport(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetReport godoc
// @Summary Get a report
// @Description Get a report by id
// @Tags Report
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} dto.ReportResponse
// @Failure 404 {object} ErrorResponse
// @Router /reports/{id} [get]
func (h *ReportHandler) GetReport(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		NewErrorResponse(c, http.StatusBadRequest, "id is required", nil)
		return
	}

	resp, err := h.reportService.GetReport(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListReports godoc
// @Summary List reports
// @Description List the account's reports
// @Tags Report
// @Produce json
// @Param limit query int false "Max reports to return"
// @Success 200 {object} dto.ListReportsResponse
// @Failure 500 {object} ErrorResponse
// @Router /reports [get]
func (h *ReportHandler) ListReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.reportService.ListReports(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GeneratePublicLink godoc
// @Summary Share a report
// @Description Issue a public share token for a report
// @Tags Report
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} dto.PublicLinkResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reports/{id}/public-link [post]
func (h *ReportHandler) GeneratePublicLink(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		NewErrorResponse(c, http.StatusBadRequest, "id is required", nil)
		return
	}

	resp, err := h.reportService.GeneratePublicLink(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RevokePublicLink godoc
// @Summary Revoke a report share link
// @Description Invalidate the public share token of a report
// @Tags Report
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /reports/{id}/public-link [delete]
func (h *ReportHandler) RevokePublicLink(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		NewErrorResponse(c, http.StatusBadRequest, "id is required", nil)
		return
	}

	if err := h.reportService.RevokePublicLink(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

// GetPublicReport godoc
// @Summary View a shared report
// @Description Resolve a public share token without authentication
// @Tags Report
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} dto.PublicReportResponse
// @Failure 404 {object} ErrorResponse
// @Router /public/reports/{token} [get]
func (h *ReportHandler) GetPublicReport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		NewErrorResponse(c, http.StatusBadRequest, "token is required", nil)
		return
	}

	resp, err := h.reportService.GetPublicReport(c.Request.Context(), token)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
