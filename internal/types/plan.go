package types

import (
	"github.com/shopspring/decimal"

	ierr "github.com/reportik/reportik/internal/errors"
)

// PlanType is the subscription tier of a tenant account
type PlanType string

const (
	PlanFree    PlanType = "free"
	PlanStarter PlanType = "starter"
	PlanPro     PlanType = "pro"
	PlanAgency  PlanType = "agency"
)

func (p PlanType) String() string {
	return string(p)
}

func (p PlanType) Validate() error {
	switch p {
	case PlanFree, PlanStarter, PlanPro, PlanAgency:
		return nil
	}
	return ierr.NewError("invalid plan").
		WithHint("Plan must be one of free, starter, pro, agency").
		WithReportableDetails(map[string]interface{}{
			"plan": string(p),
		}).
		Mark(ierr.ErrValidation)
}

// PlanLimits captures the entitlements of a plan. MaxClients of -1 means
// unlimited.
type PlanLimits struct {
	Name            string
	MonthlyCredits  int64
	Price           decimal.Decimal
	MaxClients      int
	AllowPDF        bool
	AllowPublicLink bool
}

// Plans is the catalog of purchasable tiers. Prices are BRL.
var Plans = map[PlanType]PlanLimits{
	PlanFree: {
		Name:            "Free",
		MonthlyCredits:  1000,
		Price:           decimal.Zero,
		MaxClients:      3,
		AllowPDF:        false,
		AllowPublicLink: false,
	},
	PlanStarter: {
		Name:            "Starter",
		MonthlyCredits:  5000,
		Price:           decimal.NewFromInt(97),
		MaxClients:      10,
		AllowPDF:        true,
		AllowPublicLink: false,
	},
	PlanPro: {
		Name:            "Pro",
		MonthlyCredits:  20000,
		Price:           decimal.NewFromInt(297),
		MaxClients:      50,
		AllowPDF:        true,
		AllowPublicLink: true,
	},
	PlanAgency: {
		Name:            "Agency",
		MonthlyCredits:  50000,
		Price:           decimal.NewFromInt(597),
		MaxClients:      -1,
		AllowPDF:        true,
		AllowPublicLink: true,
	},
}

// GetPlanLimits returns the catalog entry for a plan, falling back to Free
// for unknown values so that legacy rows keep working.
func GetPlanLimits(p PlanType) PlanLimits {
	if limits, ok := Plans[p]; ok {
		return limits
	}
	return Plans[PlanFree]
}

// CreditPackage is a one-off purchasable credit bundle
type CreditPackage struct {
	Credits int64
	Price   decimal.Decimal
}

// CreditPackages lists the purchasable bundles. Prices are BRL.
var CreditPackages = []CreditPackage{
	{Credits: 1000, Price: decimal.NewFromInt(29)},
	{Credits: 3000, Price: decimal.NewFromInt(79)},
	{Credits: 10000, Price: decimal.NewFromInt(249)},
}

// FindCreditPackage returns the package matching the requested credit amount
func FindCreditPackage(credits int64) (CreditPackage, error) {
	for _, pkg := range CreditPackages {
		if pkg.Credits == credits {
			return pkg, nil
		}
	}
	return CreditPackage{}, ierr.NewError("invalid credit package").
		WithHint("Choose one of the available credit packages").
		WithReportableDetails(map[string]interface{}{
			"credits": credits,
		}).
		Mark(ierr.ErrValidation)
}
