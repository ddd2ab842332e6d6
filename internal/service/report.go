package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/reportik/reportik/internal/api/dto"
	"github.com/reportik/reportik/internal/domain/report"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

// ReportService generates client reports and manages public share links.
// Generation reserves credits up front, runs the provider chain and then
// trues the reservation up to the winning provider's actual cost.
type ReportService interface {
	CreateReport(ctx context.Context, req *dto.CreateReportRequest) (*dto.ReportResponse, error)
	GetReport(ctx context.Context, id string) (*dto.ReportResponse, error)
	ListReports(ctx context.Context, limit int) (*dto.ListReportsResponse, error)

	// GeneratePublicLink issues (or reuses) a share token. Gated by the
	// plan's public link entitlement.
	GeneratePublicLink(ctx context.Context, reportID string) (*dto.PublicLinkResponse, error)

	// RevokePublicLink invalidates the share token
	RevokePublicLink(ctx context.Context, reportID string) error

	// GetPublicReport resolves a share token without authentication
	GetPublicReport(ctx context.Context, token string) (*dto.PublicReportResponse, error)
}

type reportService struct {
	ServiceParams
}

// NewReportService creates a new report service
func NewReportService(params ServiceParams) ReportService {
	return &reportService{
		ServiceParams: params,
	}
}

func (s *reportService) CreateReport(ctx context.Context, req *dto.CreateReportRequest) (*dto.ReportResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The client lookup is tenant scoped, so this also proves ownership
	c, err := s.ClientRepo.Get(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	estimate, err := s.AIChain.EstimateCost()
	if err != nil {
		return nil, err
	}

	reportID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REPORT)
	creditService := NewCreditService(s.ServiceParams)

	// Reserve the estimated cost before doing any work. The reservation is
	// trued up to the winning provider's cost afterwards, or released in
	// full when every provider fails.
	if _, err := creditService.TryConsume(ctx, estimate, types.LedgerReasonReportGeneration, reportID, "report generation reserve"); err != nil {
		return nil, err
	}

	m, err := s.MetricsSource.Fetch(ctx, c.ID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		s.releaseReservation(ctx, creditService, estimate, reportID)
		return nil, err
	}

	result, err := s.AIChain.Generate(ctx, m, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		s.releaseReservation(ctx, creditService, estimate, reportID)
		return nil, err
	}

	// True up: release the unused slice when the winning provider was
	// cheaper than the reservation
	if result.Cost < estimate {
		if err := creditService.ReleaseReservation(ctx, estimate-result.Cost, reportID, "report generation true-up"); err != nil {
			s.Logger.Errorw("failed to true up report reservation",
				"error", err,
				"report_id", reportID,
				"reserved", estimate,
				"actual", result.Cost,
			)
		}
	}

	metricsJSON, err := json.Marshal(m)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	rep := &report.Report{
		ID:          reportID,
		ClientID:    c.ID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		Summary:     result.Summary,
		Provider:    result.Provider,
		CostCredits: result.Cost,
		Metrics:     metricsJSON,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
	if err := rep.Validate(); err != nil {
		return nil, err
	}

	if err := s.ReportRepo.Create(ctx, rep); err != nil {
		return nil, err
	}

	s.publishReportGenerated(ctx, rep)

	s.Logger.Infow("report generated",
		"report_id", rep.ID,
		"tenant_id", rep.TenantID,
		"client_id", rep.ClientID,
		"provider", rep.Provider,
		"cost_credits", rep.CostCredits,
	)
	return &dto.ReportResponse{Report: rep}, nil
}

func (s *reportService) GetReport(ctx context.Context, id string) (*dto.ReportResponse, error) {
	rep, err := s.ReportRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ReportResponse{Report: rep}, nil
}

func (s *reportService) ListReports(ctx context.Context, limit int) (*dto.ListReportsResponse, error) {
	if limit <= 0 {
		limit = 50
	}

	reports, err := s.ReportRepo.List(ctx, types.GetTenantID(ctx), limit)
	if err != nil {
		return nil, err
	}

	return &dto.ListReportsResponse{
		Items: lo.Map(reports, func(rep *report.Report, _ int) *dto.ReportResponse {
			return &dto.ReportResponse{Report: rep}
		}),
		Total: len(reports),
	}, nil
}

func (s *reportService) GeneratePublicLink(ctx context.Context, reportID string) (*dto.PublicLinkResponse, error) {
	acct, err := s.AccountRepo.Get(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}
	if !types.GetPlanLimits(acct.Plan).AllowPublicLink {
		return nil, ierr.NewError("public links are not available on this plan").
			WithHint("Upgrade to a plan with public link sharing").
			WithReportableDetails(map[string]interface{}{
				"plan": acct.Plan,
			}).
			Mark(ierr.ErrPermissionDenied)
	}

	rep, err := s.ReportRepo.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	// Reuse the existing token while it has not been revoked
	if rep.HasActivePublicLink() {
		return &dto.PublicLinkResponse{ReportID: rep.ID, Token: *rep.PublicToken}, nil
	}

	token, err := generateShareToken()
	if err != nil {
		return nil, err
	}

	rep.PublicToken = &token
	rep.RevokedAt = nil
	if err := s.ReportRepo.Update(ctx, rep); err != nil {
		return nil, err
	}

	s.Logger.Infow("public link issued",
		"report_id", rep.ID,
		"tenant_id", rep.TenantID,
	)
	return &dto.PublicLinkResponse{ReportID: rep.ID, Token: token}, nil
}

func (s *reportService) RevokePublicLink(ctx context.Context, reportID string) error {
	rep, err := s.ReportRepo.Get(ctx, reportID)
	if err != nil {
		return err
	}

	if rep.PublicToken == nil {
		return ierr.NewError("report has no public link").
			WithReportableDetails(map[string]interface{}{
				"report_id": reportID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	rep.RevokedAt = &now
	return s.ReportRepo.Update(ctx, rep)
}

func (s *reportService) GetPublicReport(ctx context.Context, token string) (*dto.PublicReportResponse, error) {
	rep, err := s.ReportRepo.GetByPublicToken(ctx, token)
	if err != nil {
		return nil, err
	}

	// A revoked token behaves exactly like an unknown one
	if !rep.HasActivePublicLink() {
		return nil, ierr.NewError("report not found").
			Mark(ierr.ErrNotFound)
	}

	return &dto.PublicReportResponse{
		ID:          rep.ID,
		PeriodStart: rep.PeriodStart,
		PeriodEnd:   rep.PeriodEnd,
		Summary:     rep.Summary,
		Provider:    rep.Provider,
		CreatedAt:   rep.CreatedAt,
	}, nil
}

func (s *reportService) releaseReservation(ctx context.Context, creditService CreditService, amount int64, reportID string) {
	if err := creditService.ReleaseReservation(ctx, amount, reportID, "report generation failed"); err != nil {
		s.Logger.Errorw("failed to release report reservation",
			"error", err,
			"report_id", reportID,
			"amount", amount,
		)
	}
}

func (s *reportService) publishReportGenerated(ctx context.Context, rep *report.Report) {
	if s.WebhookPublisher == nil {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"report_id":    rep.ID,
		"client_id":    rep.ClientID,
		"provider":     rep.Provider,
		"cost_credits": rep.CostCredits,
	})
	if err != nil {
		return
	}

	event := &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: types.WebhookEventReportGenerated,
		TenantID:  rep.TenantID,
		UserID:    types.GetUserID(ctx),
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish report.generated event",
			"error", err,
			"report_id", rep.ID,
		)
	}
}

// generateShareToken returns a 32 byte random hex token
func generateShareToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	return hex.EncodeToString(buf), nil
}
