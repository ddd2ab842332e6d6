package dto

import (
	"time"

	"github.com/reportik/reportik/internal/domain/report"
	ierr "github.com/reportik/reportik/internal/errors"
)

type CreateReportRequest struct {
	ClientID    string    `json:"client_id" binding:"required"`
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}

func (r *CreateReportRequest) Validate() error {
	if r.ClientID == "" {
		return ierr.NewError("client id is required").
			Mark(ierr.ErrValidation)
	}
	if !r.PeriodEnd.After(r.PeriodStart) {
		return ierr.NewError("period end must be after period start").
			WithHint("Check the requested reporting period").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type ReportResponse struct {
	*report.Report
}

type ListReportsResponse struct {
	Items []*ReportResponse `json:"items"`
	Total int               `json:"total"`
}

// PublicLinkResponse carries the share token for a report
type PublicLinkResponse struct {
	ReportID string `json:"report_id"`
	Token    string `json:"token"`
}

// PublicReportResponse is the unauthenticated view of a shared report
type PublicReportResponse struct {
	ID          string    `json:"id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Summary     string    `json:"summary"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
}
