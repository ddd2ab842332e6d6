package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"

	"github.com/reportik/reportik/internal/config"
	ierr "github.com/reportik/reportik/internal/errors"
	"github.com/reportik/reportik/internal/logger"
)

// CheckoutRequest describes the checkout session to open with the provider
type CheckoutRequest struct {
	Title             string
	Amount            decimal.Decimal
	Currency          string
	ExternalReference string
	Metadata          map[string]string
	IdempotencyKey    string
}

// CheckoutSession is the provider's created checkout
type CheckoutSession struct {
	ID        string
	InitPoint string
}

// ProviderPayment is the authoritative payment state fetched from the
// provider. Notifications only carry the payment id, the rest comes from
// this lookup.
type ProviderPayment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	TransactionAmount decimal.Decimal
	Currency          string
	Metadata          map[string]string
}

// Gateway abstracts the payment provider API
type Gateway interface {
	CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
	GetPayment(ctx context.Context, paymentID string) (*ProviderPayment, error)
}

type providerGateway struct {
	cfg    *config.Configuration
	client *http.Client
	logger *logger.Logger
}

// NewGateway creates a provider gateway with retrying transport
func NewGateway(cfg *config.Configuration, log *logger.Logger) Gateway {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil

	return &providerGateway{
		cfg:    cfg,
		client: rc.StandardClient(),
		logger: log,
	}
}

type checkoutItem struct {
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Currency  string          `json:"currency_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type checkoutPayload struct {
	Items             []checkoutItem    `json:"items"`
	NotificationURL   string            `json:"notification_url"`
	BackURL           string            `json:"back_url,omitempty"`
	AutoReturn        string            `json:"auto_return,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	ExternalReference string            `json:"external_reference"`
}

type checkoutResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

func (g *providerGateway) CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	if g.cfg.Billing.AccessToken == "" {
		return nil, ierr.NewError("payment provider not configured").
			WithHint("Billing is not available right now").
			Mark(ierr.ErrIntegration)
	}

	payload := checkoutPayload{
		Items: []checkoutItem{{
			Title:     req.Title,
			Quantity:  1,
			Currency:  req.Currency,
			UnitPrice: req.Amount,
		}},
		NotificationURL:   g.cfg.Billing.NotificationURL,
		BackURL:           g.cfg.Billing.BackURL,
		AutoReturn:        "approved",
		Metadata:          req.Metadata,
		ExternalReference: req.ExternalReference,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.Billing.APIURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.Billing.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("X-Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment provider is unreachable").
			Mark(ierr.ErrIntegration)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrIntegration)
	}

	if resp.StatusCode >= 400 {
		g.logger.Errorw("checkout creation failed",
			"status", resp.StatusCode,
			"response", string(respBody),
		)
		return nil, ierr.NewError("failed to create checkout").
			WithHint("Payment provider rejected the checkout").
			WithReportableDetails(map[string]interface{}{
				"status": resp.StatusCode,
			}).
			Mark(ierr.ErrIntegration)
	}

	var out checkoutResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment provider returned an unexpected response").
			Mark(ierr.ErrIntegration)
	}

	return &CheckoutSession{ID: out.ID, InitPoint: out.InitPoint}, nil
}

type paymentResponse struct {
	ID                json.Number       `json:"id"`
	Status            string            `json:"status"`
	StatusDetail      string            `json:"status_detail"`
	ExternalReference string            `json:"external_reference"`
	TransactionAmount decimal.Decimal   `json:"transaction_amount"`
	CurrencyID        string            `json:"currency_id"`
	Metadata          map[string]string `json:"metadata"`
}

func (g *providerGateway) GetPayment(ctx context.Context, paymentID string) (*ProviderPayment, error) {
	if g.cfg.Billing.AccessToken == "" {
		return nil, ierr.NewError("payment provider not configured").
			Mark(ierr.ErrIntegration)
	}

	url := fmt.Sprintf("%s/v1/payments/%s", g.cfg.Billing.APIURL, paymentID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.Billing.AccessToken)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment provider is unreachable").
			Mark(ierr.ErrIntegration)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrIntegration)
	}

	if resp.StatusCode >= 400 {
		g.logger.Errorw("payment lookup failed",
			"payment_id", paymentID,
			"status", resp.StatusCode,
		)
		return nil, ierr.NewError("failed to fetch payment").
			WithReportableDetails(map[string]interface{}{
				"payment_id": paymentID,
				"status":     resp.StatusCode,
			}).
			Mark(ierr.ErrIntegration)
	}

	var out paymentResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment provider returned an unexpected response").
			Mark(ierr.ErrIntegration)
	}

	return &ProviderPayment{
		ID:                out.ID.String(),
		Status:            out.Status,
		StatusDetail:      out.StatusDetail,
		ExternalReference: out.ExternalReference,
		TransactionAmount: out.TransactionAmount,
		Currency:          out.CurrencyID,
		Metadata:          out.Metadata,
	}, nil
}
