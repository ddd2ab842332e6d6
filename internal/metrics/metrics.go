package metrics

import (
	"context"
	"time"
)

// Daily is one day of campaign metrics
type Daily struct {
	Date        string  `json:"date"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Cost        float64 `json:"cost"`
}

// Totals aggregates a metrics series
type Totals struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
	Conversions int64   `json:"conversions"`
	Cost        float64 `json:"cost"`
}

// Metrics is the campaign data a report is generated from
type Metrics struct {
	Totals Totals  `json:"totals"`
	Daily  []Daily `json:"daily"`
}

// Source provides campaign metrics for a client over a period
type Source interface {
	Fetch(ctx context.Context, clientID string, periodStart, periodEnd time.Time) (*Metrics, error)
}
