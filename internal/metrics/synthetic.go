package metrics

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// SyntheticSource generates plausible campaign metrics. Ad platform
// connectors are not wired yet, so reports run off this generator.
type SyntheticSource struct {
	rng *rand.Rand
}

// NewSyntheticSource creates a synthetic metrics source
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch produces a random daily series whose totals stay in realistic
// campaign ranges: 10k-100k impressions, 2-8% CTR, 5-20% conversion rate
// and R$ 1k-10k spend.
func (s *SyntheticSource) Fetch(_ context.Context, _ string, periodStart, periodEnd time.Time) (*Metrics, error) {
	dayCount := int(math.Ceil(periodEnd.Sub(periodStart).Hours()/24)) + 1
	if dayCount < 1 {
		dayCount = 1
	}

	totalImpressions := s.rng.Int63n(90000) + 10000
	avgCTR := (s.rng.Float64()*6 + 2) / 100
	totalClicks := int64(float64(totalImpressions) * avgCTR)
	conversionRate := (s.rng.Float64()*15 + 5) / 100
	totalConversions := int64(float64(totalClicks) * conversionRate)
	totalCost := float64(s.rng.Int63n(9000) + 1000)

	days := make([]Daily, 0, dayCount)

	remainingImpressions := totalImpressions
	remainingClicks := totalClicks
	remainingConversions := totalConversions
	remainingCost := totalCost

	for i := 0; i < dayCount; i++ {
		date := periodStart.AddDate(0, 0, i).Format("2006-01-02")
		isLastDay := i == dayCount-1

		// Spread the remainder across the remaining days with ±30% noise
		avgPerDay := 1 / float64(dayCount-i)
		noise := 1.0
		if !isLastDay {
			noise = s.rng.Float64()*0.6 + 0.7
		}
		dayFraction := math.Min(avgPerDay*noise, 1)

		day := Daily{Date: date}
		if isLastDay {
			day.Impressions = remainingImpressions
			day.Clicks = remainingClicks
			day.Conversions = remainingConversions
			day.Cost = math.Round(remainingCost*100) / 100
		} else {
			day.Impressions = int64(float64(remainingImpressions) * dayFraction)
			day.Clicks = int64(float64(remainingClicks) * dayFraction)
			day.Conversions = int64(float64(remainingConversions) * dayFraction)
			day.Cost = math.Round(remainingCost*dayFraction*100) / 100
		}

		days = append(days, day)

		remainingImpressions -= day.Impressions
		remainingClicks -= day.Clicks
		remainingConversions -= day.Conversions
		remainingCost -= day.Cost
	}

	var totals Totals
	for _, day := range days {
		totals.Impressions += day.Impressions
		totals.Clicks += day.Clicks
		totals.Conversions += day.Conversions
		totals.Cost += day.Cost
	}
	totals.Cost = math.Round(totals.Cost*100) / 100
	if totals.Impressions > 0 {
		totals.CTR = math.Round(float64(totals.Clicks)/float64(totals.Impressions)*10000) / 100
	}

	return &Metrics{Totals: totals, Daily: days}, nil
}
