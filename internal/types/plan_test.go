package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanCatalog(t *testing.T) {
	tests := []struct {
		plan       PlanType
		credits    int64
		price      string
		maxClients int
	}{
		{PlanFree, 1000, "0", 3},
		{PlanStarter, 5000, "97", 10},
		{PlanPro, 20000, "297", 50},
		{PlanAgency, 50000, "597", -1},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			limits := GetPlanLimits(tt.plan)
			assert.Equal(t, tt.credits, limits.MonthlyCredits)
			assert.Equal(t, tt.price, limits.Price.String())
			assert.Equal(t, tt.maxClients, limits.MaxClients)
		})
	}
}

func TestGetPlanLimitsFallsBackToFree(t *testing.T) {
	limits := GetPlanLimits(PlanType("legacy"))
	assert.Equal(t, Plans[PlanFree], limits)
}

func TestPlanTypeValidate(t *testing.T) {
	assert.NoError(t, PlanPro.Validate())
	assert.Error(t, PlanType("platinum").Validate())
}

func TestPublicLinkEntitlement(t *testing.T) {
	assert.False(t, GetPlanLimits(PlanFree).AllowPublicLink)
	assert.False(t, GetPlanLimits(PlanStarter).AllowPublicLink)
	assert.True(t, GetPlanLimits(PlanPro).AllowPublicLink)
	assert.True(t, GetPlanLimits(PlanAgency).AllowPublicLink)
}

func TestFindCreditPackage(t *testing.T) {
	pkg, err := FindCreditPackage(3000)
	assert.NoError(t, err)
	assert.Equal(t, "79", pkg.Price.String())

	_, err = FindCreditPackage(1234)
	assert.Error(t, err)
}
