package paymob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xavierca1/leadflow/internal/usecase"
)

type Client struct {
	baseURL       string
	apiKey        string
	integrationID int
	http          *http.Client
}

func NewClient(apiKey, baseURL string, integrationID int) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		integrationID: integrationID,
		http:          &http.Client{Timeout: 15 * time.Second},
	}
}

// CreatePaymentKey runs the three-step Accept flow: auth token, order
// registration, payment key.
func (c *Client) CreatePaymentKey(ctx context.Context, in usecase.PaymentKeyInput) (string, error) {
	var auth authResponse
	if err := c.post(ctx, "/auth/tokens", authRequest{APIKey: c.apiKey}, &auth); err != nil {
		return "", fmt.Errorf("paymob auth: %w", err)
	}

	lastName := in.UserID
	if len(lastName) > 5 {
		lastName = lastName[:5]
	}

	var order orderResponse
	err := c.post(ctx, "/ecommerce/orders", orderRequest{
		AuthToken:      auth.Token,
		DeliveryNeeded: "false",
		AmountCents:    in.AmountCents,
		Currency:       in.Currency,
		ShippingData: shippingData{
			ExtraDescription: in.CompanyID,
			FirstName:        "User",
			LastName:         lastName,
			Email:            in.Email,
			PhoneNumber:      placeholderPhone,
		},
	}, &order)
	if err != nil {
		return "", fmt.Errorf("paymob order: %w", err)
	}

	var key paymentKeyResponse
	err = c.post(ctx, "/acceptance/payment_keys", paymentKeyRequest{
		AuthToken:     auth.Token,
		AmountCents:   in.AmountCents,
		Expiration:    3600,
		OrderID:       order.ID,
		BillingData:   newBillingData(in.Email, in.Currency),
		Currency:      in.Currency,
		IntegrationID: c.integrationID,
	}, &key)
	if err != nil {
		return "", fmt.Errorf("paymob payment key: %w", err)
	}
	if key.Token == "" {
		return "", fmt.Errorf("paymob payment key: empty token")
	}
	return key.Token, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
