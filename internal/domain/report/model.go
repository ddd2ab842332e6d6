package report

import (
	"encoding/json"
	"time"

	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/types"
)

// Report is a generated performance report for one of a tenant's clients.
// Metrics holds the raw campaign metrics the summary was produced from.
type Report struct {
	ID          string          `db:"id" json:"id"`
	ClientID    string          `db:"client_id" json:"client_id"`
	PeriodStart time.Time       `db:"period_start" json:"period_start"`
	PeriodEnd   time.Time       `db:"period_end" json:"period_end"`
	Summary     string          `db:"summary" json:"summary"`
	Provider    string          `db:"provider" json:"provider"`
	CostCredits int64           `db:"cost_credits" json:"cost_credits"`
	Metrics     json.RawMessage `db:"metrics" json:"metrics"`
	PublicToken *string         `db:"public_token" json:"public_token,omitempty"`
	RevokedAt   *time.Time      `db:"revoked_at" json:"revoked_at,omitempty"`
	types.BaseModel
}

func (r *Report) TableName() string {
	return "reports"
}

func (r *Report) Validate() error {
	if r.ClientID == "" {
		return ierr.NewError("report requires a client").
			Mark(ierr.ErrValidation)
	}
	if !r.PeriodEnd.After(r.PeriodStart) {
		return ierr.NewError("report period end must be after period start").
			WithHint("Check the requested reporting period").
			WithReportableDetails(map[string]interface{}{
				"period_start": r.PeriodStart,
				"period_end":   r.PeriodEnd,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// HasActivePublicLink reports whether the report is shared and not revoked
func (r *Report) HasActivePublicLink() bool {
	return r.PublicToken != nil && r.RevokedAt == nil
}
