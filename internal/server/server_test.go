package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/depictapp/depict/internal/config"
	creditdomain "github.com/depictapp/depict/internal/credit/domain"
	generationdomain "github.com/depictapp/depict/internal/generation/domain"
	"github.com/depictapp/depict/internal/payment/adapters"
	paymentdomain "github.com/depictapp/depict/internal/payment/domain"
	"github.com/depictapp/depict/internal/providers/artifact"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fakeCreditService struct {
	balance float64
}

func (f *fakeCreditService) GetBalance(ctx context.Context, subjectID string) (float64, error) {
	return f.balance, nil
}

func (f *fakeCreditService) TryDebit(ctx context.Context, subjectID string, amount float64, relatedOperationID string) (creditdomain.DebitResult, error) {
	return creditdomain.DebitResult{}, nil
}

func (f *fakeCreditService) Credit(ctx context.Context, subjectID string, amount float64, kind creditdomain.TransactionKind, relatedOperationID string) error {
	return nil
}

type fakeGenerationService struct {
	result *generationdomain.RunResult
	err    error
}

func (f *fakeGenerationService) Run(ctx context.Context, req generationdomain.RunRequest) (*generationdomain.RunResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeGenerationService) History(ctx context.Context, subjectID string, limit int) ([]generationdomain.Attempt, error) {
	return nil, nil
}

type fakeSignupService struct {
	calls int
}

func (f *fakeSignupService) EnsureSubject(ctx context.Context, subjectID string) error {
	f.calls++
	return nil
}

type fakeRecorder struct {
	applied bool
	events  []paymentdomain.Event
}

func (f *fakeRecorder) RecordPaymentIfNew(ctx context.Context, event paymentdomain.Event) (bool, error) {
	f.events = append(f.events, event)
	return f.applied, nil
}

type fakeAdapter struct {
	verifyErr error
	event     *paymentdomain.Event
	parseErr  error
}

func (f *fakeAdapter) Provider() string { return "stripe" }

func (f *fakeAdapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	return f.verifyErr
}

func (f *fakeAdapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.Event, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

type serverFixture struct {
	server     *Server
	signup     *fakeSignupService
	recorder   *fakeRecorder
	adapter    *fakeAdapter
	generation *fakeGenerationService
}

func setupServer(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fixture := &serverFixture{
		signup:   &fakeSignupService{},
		recorder: &fakeRecorder{applied: true},
		adapter: &fakeAdapter{event: &paymentdomain.Event{
			Provider:          "stripe",
			ExternalPaymentID: "pi_1",
			SubjectID:         "sub_1",
			Credits:           100,
		}},
		generation: &fakeGenerationService{},
	}

	registry := adapters.NewRegistry([]paymentdomain.Adapter{fixture.adapter}, nil)
	fixture.server = NewServer(ServerParams{
		Gin:           NewEngine(zap.NewNop()),
		Cfg:           config.Config{Artifacts: config.ArtifactsConfig{PublicBaseURL: "/generated-images"}},
		Log:           zap.NewNop(),
		CreditSvc:     &fakeCreditService{balance: 20},
		GenerationSvc: fixture.generation,
		SignupSvc:     fixture.signup,
		Recorder:      fixture.recorder,
		Registry:      registry,
		Artifacts:     artifact.NewFSStore(t.TempDir(), "/generated-images"),
	})
	return fixture
}

func (f *serverFixture) do(method, path string, body []byte, subject string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if subject != "" {
		req.Header.Set(HeaderSubject, subject)
	}
	rec := httptest.NewRecorder()
	f.server.Engine().ServeHTTP(rec, req)
	return rec
}

func TestAPIRequiresSubjectHeader(t *testing.T) {
	f := setupServer(t)

	rec := f.do(http.MethodGet, "/api/credits/balance", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetBalance(t *testing.T) {
	f := setupServer(t)

	rec := f.do(http.MethodGet, "/api/credits/balance", nil, "sub_1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["balance"] != 20 {
		t.Fatalf("expected balance 20, got %v", body["balance"])
	}
	if f.signup.calls != 1 {
		t.Fatalf("expected subject provisioning once, got %d", f.signup.calls)
	}
}

func TestGenerateMapsInsufficientFundsTo402(t *testing.T) {
	f := setupServer(t)
	f.generation.err = &generationdomain.InsufficientFundsError{Balance: 3, Needed: 5}

	body := []byte(`{"challenge_id":"ch_1","articulation_text":"a golden sunset over the water"}`)
	rec := f.do(http.MethodPost, "/api/generate", body, "sub_1")
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Type != "insufficient_funds" {
		t.Fatalf("expected insufficient_funds, got %s", resp.Error.Type)
	}
	if resp.Error.Balance == nil || *resp.Error.Balance != 3 {
		t.Fatalf("expected balance 3 in body, got %+v", resp.Error.Balance)
	}
	if resp.Error.Needed == nil || *resp.Error.Needed != 5 {
		t.Fatalf("expected needed 5 in body, got %+v", resp.Error.Needed)
	}
}

func TestGenerateMapsRateLimitTo429WithRetryAfter(t *testing.T) {
	f := setupServer(t)
	f.generation.err = &generationdomain.RateLimitedError{RetryAfter: 30 * time.Second}

	body := []byte(`{"challenge_id":"ch_1","articulation_text":"a golden sunset over the water"}`)
	rec := f.do(http.MethodPost, "/api/generate", body, "sub_1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("expected Retry-After 30, got %q", got)
	}
}

func TestGenerateMapsFailureTo500WithRefundNotice(t *testing.T) {
	f := setupServer(t)
	f.generation.err = generationdomain.ErrGenerationFailed

	body := []byte(`{"challenge_id":"ch_1","articulation_text":"a golden sunset over the water"}`)
	rec := f.do(http.MethodPost, "/api/generate", body, "sub_1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Error.Refunded {
		t.Fatal("expected refunded flag in error body")
	}
}

func TestWebhookAppliesPayment(t *testing.T) {
	f := setupServer(t)

	rec := f.do(http.MethodPost, "/api/webhooks/stripe", []byte(`{}`), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.recorder.events) != 1 {
		t.Fatalf("expected one recorded event, got %d", len(f.recorder.events))
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["applied"] != true {
		t.Fatalf("expected applied true, got %v", body["applied"])
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := setupServer(t)
	f.adapter.verifyErr = paymentdomain.ErrInvalidSignature

	rec := f.do(http.MethodPost, "/api/webhooks/stripe", []byte(`{}`), "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(f.recorder.events) != 0 {
		t.Fatalf("expected no recorded events, got %d", len(f.recorder.events))
	}
}

func TestWebhookAcknowledgesIgnoredEvents(t *testing.T) {
	f := setupServer(t)
	f.adapter.parseErr = paymentdomain.ErrEventIgnored

	rec := f.do(http.MethodPost, "/api/webhooks/stripe", []byte(`{}`), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for ignored event, got %d", rec.Code)
	}
	if len(f.recorder.events) != 0 {
		t.Fatalf("expected no recorded events, got %d", len(f.recorder.events))
	}
}

func TestWebhookUnknownProviderIs404(t *testing.T) {
	f := setupServer(t)

	rec := f.do(http.MethodPost, "/api/webhooks/paypal", []byte(`{}`), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
