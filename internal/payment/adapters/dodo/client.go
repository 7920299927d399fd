package dodo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
)

const (
	liveAPIBaseURL = "https://live.dodopayments.com"
	testAPIBaseURL = "https://test.dodopayments.com"
)

// Client resolves payments against the Dodo API for the
// verify-on-redirect fallback path.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func NewClient(apiKey string, live bool) *Client {
	baseURL := testAPIBaseURL
	if live {
		baseURL = liveAPIBaseURL
	}
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Provider() string { return providerName }

func (c *Client) ResolveSession(ctx context.Context, paymentID string) (*paymentdomain.Event, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	endpoint := fmt.Sprintf("%s/payments/%s", c.baseURL, url.PathEscape(paymentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dodo payment lookup failed: status %d", resp.StatusCode)
	}

	var payment paymentObject
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if payment.Status != "succeeded" {
		return nil, paymentdomain.ErrPaymentIncomplete
	}

	return paymentToEvent(payment, body)
}
