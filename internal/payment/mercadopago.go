// Package payment talks to the MercadoPago Checkout Pro preferences API.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.mercadopago.com"

// ErrUpstream wraps any failure reported by, or while reaching, MercadoPago.
var ErrUpstream = errors.New("payment processor error")

type Item struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type Payer struct {
	Email string `json:"email,omitempty"`
}

type BackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type Preference struct {
	Items             []Item   `json:"items"`
	Payer             Payer    `json:"payer"`
	BackURLs          BackURLs `json:"back_urls"`
	AutoReturn        string   `json:"auto_return,omitempty"`
	ExternalReference string   `json:"external_reference,omitempty"`
}

type PreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// UpstreamError carries the processor's raw error body.
type UpstreamError struct {
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mercadopago: %v", e.Err)
	}
	return fmt.Sprintf("mercadopago: status %d: %s", e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

type MercadoPago struct {
	client *resty.Client
}

func NewMercadoPago(baseURL, accessToken string) *MercadoPago {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetAuthToken(accessToken).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	return &MercadoPago{client: client}
}

// CreatePreference registers the preference and returns the processor's reply.
// No retries are attempted.
func (m *MercadoPago) CreatePreference(ctx context.Context, p Preference) (*PreferenceResponse, error) {
	var out PreferenceResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(p).
		SetResult(&out).
		Post("/checkout/preferences")
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	if resp.IsError() {
		return nil, &UpstreamError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	if out.InitPoint == "" {
		return nil, &UpstreamError{Status: resp.StatusCode(), Body: "missing init_point"}
	}
	return &out, nil
}
