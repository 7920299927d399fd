package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
)

const providerName = "stripe"

// Adapter verifies and parses Stripe webhook deliveries. Signature
// verification follows the Stripe-Signature scheme: HMAC-SHA256 over
// "<timestamp>.<payload>" with the endpoint secret.
type Adapter struct {
	webhookSecret string
}

func NewAdapter(webhookSecret string) *Adapter {
	return &Adapter{webhookSecret: strings.TrimSpace(webhookSecret)}
}

func (a *Adapter) Provider() string { return providerName }

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	if a.webhookSecret == "" {
		return paymentdomain.ErrInvalidSignature
	}
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}
	return paymentdomain.ErrInvalidSignature
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.Event, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}
	if strings.TrimSpace(event.Type) != "checkout.session.completed" {
		return nil, paymentdomain.ErrEventIgnored
	}

	session := event.Data.Object
	return sessionToEvent(session, payload)
}

func sessionToEvent(session checkoutSession, payload []byte) (*paymentdomain.Event, error) {
	subjectID := strings.TrimSpace(session.Metadata["subject_id"])
	credits, err := strconv.ParseFloat(strings.TrimSpace(session.Metadata["credits"]), 64)
	if subjectID == "" || err != nil || credits <= 0 {
		return nil, paymentdomain.ErrMissingMetadata
	}

	paymentID := session.paymentIntentID()
	if paymentID == "" {
		// Fall back to the session id so zero-amount checkouts still
		// carry a stable idempotency key.
		paymentID = strings.TrimSpace(session.ID)
	}
	if paymentID == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	return &paymentdomain.Event{
		Provider:          providerName,
		ExternalPaymentID: paymentID,
		SubjectID:         subjectID,
		Credits:           credits,
		RawPayload:        payload,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "t":
			timestamp = pair[1]
		case "v1":
			signatures = append(signatures, pair[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, paymentdomain.ErrInvalidSignature
	}
	return timestamp, signatures, nil
}

type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object checkoutSession `json:"object"`
	} `json:"data"`
}

type checkoutSession struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"payment_status"`
	PaymentIntent json.RawMessage   `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

// paymentIntentID handles both the expanded-object and plain-string forms
// the Stripe API uses for payment_intent.
func (s checkoutSession) paymentIntentID() string {
	raw := strings.TrimSpace(string(s.PaymentIntent))
	if raw == "" || raw == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(s.PaymentIntent, &id); err == nil {
		return strings.TrimSpace(id)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(s.PaymentIntent, &obj); err == nil {
		return strings.TrimSpace(obj.ID)
	}
	return ""
}
