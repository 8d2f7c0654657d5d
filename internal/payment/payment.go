package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrDeclined is the user-recoverable rejection from the provider; the
// checkout returns to the payment step.
var ErrDeclined = errors.New("payment declined")

// Provider captures a charge with an idempotency key so a retried
// submission cannot double-charge. No retries happen here beyond what the
// key enables.
type Provider interface {
	Charge(ctx context.Context, amountCents int64, currency, idempotencyKey string) (ref string, err error)
}

type chargeReq struct {
	AmountCents    int64  `json:"amount_cents"`
	Currency       string `json:"currency"`
	IdempotencyKey string `json:"idempotency_key"`
}

type chargeResp struct {
	Ref string `json:"ref"`
}

// HTTPProvider talks to the external charge API. The call is one of the
// two blocking points of a checkout, so the client timeout is bounded.
type HTTPProvider struct {
	URL    string
	Client *http.Client
}

func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Charge(ctx context.Context, amountCents int64, currency, idempotencyKey string) (string, error) {
	body, err := json.Marshal(chargeReq{
		AmountCents:    amountCents,
		Currency:       currency,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment call: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var cr chargeResp
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return "", fmt.Errorf("payment response: %w", err)
		}
		return cr.Ref, nil
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		return "", ErrDeclined
	default:
		return "", fmt.Errorf("payment provider status %d", resp.StatusCode)
	}
}
