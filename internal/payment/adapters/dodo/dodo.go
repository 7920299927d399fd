package dodo

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
)

const providerName = "dodo"

// Adapter verifies and parses Dodo Payments webhook deliveries. Dodo uses
// the standard-webhooks scheme: base64 HMAC-SHA256 over
// "<webhook-id>.<webhook-timestamp>.<payload>".
type Adapter struct {
	signingKey []byte
}

func NewAdapter(webhookKey string) *Adapter {
	key := strings.TrimSpace(webhookKey)
	key = strings.TrimPrefix(key, "whsec_")
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		// Keys are normally base64; fall back to the raw bytes.
		decoded = []byte(key)
	}
	return &Adapter{signingKey: decoded}
}

func (a *Adapter) Provider() string { return providerName }

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	if len(a.signingKey) == 0 {
		return paymentdomain.ErrInvalidSignature
	}
	msgID := strings.TrimSpace(headers.Get("Webhook-Id"))
	timestamp := strings.TrimSpace(headers.Get("Webhook-Timestamp"))
	sigHeader := strings.TrimSpace(headers.Get("Webhook-Signature"))
	if msgID == "" || timestamp == "" || sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	signed := fmt.Sprintf("%s.%s.%s", msgID, timestamp, string(payload))
	mac := hmac.New(sha256.New, a.signingKey)
	_, _ = mac.Write([]byte(signed))
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// Header carries space-separated "v1,<sig>" entries.
	for _, entry := range strings.Fields(sigHeader) {
		signature := entry
		if pair := strings.SplitN(entry, ",", 2); len(pair) == 2 {
			signature = pair[1]
		}
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
	if strings.TrimSpace(event.Type) != "payment.succeeded" {
		return nil, paymentdomain.ErrEventIgnored
	}
	return paymentToEvent(event.Data, payload)
}

func paymentToEvent(payment paymentObject, payload []byte) (*paymentdomain.Event, error) {
	paymentID := strings.TrimSpace(payment.PaymentID)
	if paymentID == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	subjectID := strings.TrimSpace(payment.Metadata["subject_id"])
	credits, err := strconv.ParseFloat(strings.TrimSpace(payment.Metadata["credits"]), 64)
	if subjectID == "" || err != nil || credits <= 0 {
		return nil, paymentdomain.ErrMissingMetadata
	}

	return &paymentdomain.Event{
		Provider:          providerName,
		ExternalPaymentID: paymentID,
		SubjectID:         subjectID,
		Credits:           credits,
		RawPayload:        payload,
	}, nil
}

type webhookEvent struct {
	Type string        `json:"type"`
	Data paymentObject `json:"data"`
}

type paymentObject struct {
	PaymentID string            `json:"payment_id"`
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata"`
}
