package stripe

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

const defaultAPIBaseURL = "https://api.stripe.com"

// Client resolves checkout sessions against the Stripe API for the
// verify-on-redirect fallback path.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultAPIBaseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Provider() string { return providerName }

func (c *Client) ResolveSession(ctx context.Context, sessionID string) (*paymentdomain.Event, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	endpoint := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, url.PathEscape(sessionID))
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
		return nil, fmt.Errorf("stripe session lookup failed: status %d", resp.StatusCode)
	}

	var session checkoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if session.PaymentStatus != "paid" {
		return nil, paymentdomain.ErrPaymentIncomplete
	}

	return sessionToEvent(session, body)
}
