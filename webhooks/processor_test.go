package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/orchestration"
)

// eventConnector translates a minimal push envelope and can replay it
// through its own sync parser.
type eventConnector struct{}

func (eventConnector) ID() string                                      { return "stub" }
func (eventConnector) BaseURL() string                                 { return "https://stub.example.com" }
func (eventConnector) AmountRepresentation() core.AmountRepresentation { return core.AmountMinorUnitInt }
func (eventConnector) CaptureSyncMethod() core.CaptureSyncMethod       { return core.CaptureSyncBulk }

type pushEnvelope struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (eventConnector) TranslateWebhook(payload []byte) (core.WebhookEvent, error) {
	parsed := pushEnvelope{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return core.WebhookEvent{}, core.ResponseDeserializationError("stub", err)
	}
	status := core.AttemptCharged
	if parsed.Status == "declined" {
		status = core.AttemptAuthorizationFailed
	}
	return core.WebhookEvent{
		EventType:   parsed.Type,
		ReferenceID: parsed.ID,
		Status:      status,
		RawPayload:  payload,
	}, nil
}

func (eventConnector) SupportsSync(req core.SyncRequest) bool { return true }

func (eventConnector) BuildSyncRequest(data *core.RouterData[core.SyncRequest, core.PaymentsResponse], captureID string) (core.WireRequest, error) {
	return core.WireRequest{Method: "GET", Path: "/payments/" + data.Request.ConnectorTransactionID}, nil
}

func (eventConnector) ParseSyncResponse(data *core.RouterData[core.SyncRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed := pushEnvelope{}
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return core.ResponseDeserializationError("stub", err)
	}
	data.RawConnectorResponse = res.Body
	return data.SetResponse(core.AttemptCharged, core.PaymentsResponse{ConnectorTransactionID: parsed.ID})
}

var (
	_ core.WebhookTranslator = eventConnector{}
	_ core.PaymentSyncer     = eventConnector{}
)

// countingExecutor fails the test if the replay path ever reaches the
// network.
type countingExecutor struct {
	calls int
}

func (e *countingExecutor) Execute(ctx context.Context, baseURL string, req core.WireRequest) (core.WireResponse, error) {
	e.calls++
	return core.WireResponse{StatusCode: 200}, nil
}

func newWebhookFixture(t *testing.T) (*Processor, *countingExecutor) {
	t.Helper()
	service, err := core.NewService(core.DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := service.RegisterConnector(eventConnector{}); err != nil {
		t.Fatalf("register connector: %v", err)
	}
	executor := &countingExecutor{}
	orchestrator, err := orchestration.New(service, orchestration.WithExecutor(executor))
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	processor, err := NewProcessor(service, orchestrator)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	return processor, executor
}

func signedDelivery(secret string, body []byte) Delivery {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return Delivery{
		Connector: "stub",
		Headers:   map[string]string{"X-Signature": hex.EncodeToString(mac.Sum(nil))},
		Body:      body,
	}
}

func TestProcessor_TranslatesVerifiedDelivery(t *testing.T) {
	processor, _ := newWebhookFixture(t)
	processor.RegisterVerifier("stub", HeaderHMACVerifier{Header: "X-Signature", Secret: "whsec"})

	body := []byte(`{"type":"payment_captured","id":"pay_evt_1","status":"captured"}`)
	result, err := processor.Process(context.Background(), signedDelivery("whsec", body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Accepted || result.StatusCode != 200 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Event.EventType != "payment_captured" || result.Event.ReferenceID != "pay_evt_1" {
		t.Fatalf("unexpected event: %+v", result.Event)
	}
	if result.Event.Status != core.AttemptCharged {
		t.Fatalf("unexpected canonical status %q", result.Event.Status)
	}
}

func TestProcessor_RejectsBadSignature(t *testing.T) {
	processor, _ := newWebhookFixture(t)
	processor.RegisterVerifier("stub", HeaderHMACVerifier{Header: "X-Signature", Secret: "whsec"})

	delivery := signedDelivery("wrong-secret", []byte(`{"type":"t","id":"pay_1"}`))
	result, err := processor.Process(context.Background(), delivery)
	if err == nil {
		t.Fatalf("expected verification error")
	}
	if result.Accepted || result.StatusCode != 401 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestProcessor_DedupesRepeatDeliveries(t *testing.T) {
	processor, _ := newWebhookFixture(t)
	body := []byte(`{"type":"payment_captured","id":"pay_dup","status":"captured"}`)

	first, err := processor.Process(context.Background(), Delivery{Connector: "stub", Body: body})
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if first.Deduped {
		t.Fatalf("first delivery must not be deduped")
	}
	second, err := processor.Process(context.Background(), Delivery{Connector: "stub", Body: body})
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !second.Deduped || !second.Accepted || second.StatusCode != 200 {
		t.Fatalf("repeat delivery must be accepted as a dedupe: %+v", second)
	}
}

func TestProcessor_UnknownConnector(t *testing.T) {
	processor, _ := newWebhookFixture(t)
	if _, err := processor.Process(context.Background(), Delivery{Connector: "nope", Body: []byte(`{}`)}); err == nil {
		t.Fatalf("expected an error for an unregistered connector")
	}
}

func TestProcessor_ApplyMirrorsThePollPath(t *testing.T) {
	processor, _ := newWebhookFixture(t)

	data := &core.RouterData[core.SyncRequest, core.PaymentsResponse]{Connector: "stub"}
	event := core.WebhookEvent{
		EventType:   "payment_captured",
		ReferenceID: "pay_apply",
		Status:      core.AttemptCharged,
		RawPayload:  []byte(`{"id":"pay_apply"}`),
	}
	if err := processor.Apply(event, data); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if data.Status != core.AttemptCharged {
		t.Fatalf("unexpected status %q", data.Status)
	}
	if data.Response == nil || data.Response.ConnectorTransactionID != "pay_apply" {
		t.Fatalf("unexpected response: %+v", data.Response)
	}
	if err := data.Validate(); err != nil {
		t.Fatalf("applied envelope must stay consistent: %v", err)
	}

	failed := &core.RouterData[core.SyncRequest, core.PaymentsResponse]{Connector: "stub"}
	event.Status = core.AttemptAuthorizationFailed
	event.EventType = "payment_declined"
	if err := processor.Apply(event, failed); err != nil {
		t.Fatalf("apply failure event: %v", err)
	}
	if failed.Error == nil || failed.Error.Code != core.NoErrorCode {
		t.Fatalf("failure event must backfill sentinels: %+v", failed.Error)
	}
	if failed.Error.Reason != "payment_declined" {
		t.Fatalf("unexpected reason %q", failed.Error.Reason)
	}
}

func TestProcessor_ReplayNeverPolls(t *testing.T) {
	processor, executor := newWebhookFixture(t)

	event := core.WebhookEvent{
		EventType:   "payment_captured",
		ReferenceID: "pay_replay",
		Status:      core.AttemptCharged,
		RawPayload:  []byte(`{"type":"payment_captured","id":"pay_replay","status":"captured"}`),
	}
	data, result, err := processor.Replay(context.Background(), Delivery{Connector: "stub"}, event)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.State != orchestration.SyncFinalized {
		t.Fatalf("expected finalized, got %q", result.State)
	}
	if executor.calls != 0 {
		t.Fatalf("replay must not reach the network, saw %d calls", executor.calls)
	}
	if data.Status != core.AttemptCharged || data.Response == nil || data.Response.ConnectorTransactionID != "pay_replay" {
		t.Fatalf("unexpected replayed envelope: status=%q response=%+v", data.Status, data.Response)
	}
}

func TestEventDeduper_WindowExpiry(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deduper := NewEventDeduper(DedupeOptions{
		Window: time.Minute,
		Now:    func() time.Time { return current },
	})
	event := core.WebhookEvent{EventType: "t", ReferenceID: "pay_1"}

	if !deduper.FirstSeen("stub", event) {
		t.Fatalf("first sighting must pass")
	}
	if deduper.FirstSeen("stub", event) {
		t.Fatalf("immediate repeat must be suppressed")
	}
	current = current.Add(2 * time.Minute)
	if !deduper.FirstSeen("stub", event) {
		t.Fatalf("repeat after the window must pass")
	}
	if !deduper.FirstSeen("stub", core.WebhookEvent{EventType: "t"}) {
		t.Fatalf("events without a reference cannot be deduped")
	}
}

func TestHeaderTokenVerifier(t *testing.T) {
	verifier := HeaderTokenVerifier{Header: "X-Verify", Token: "tok_1"}
	ok := Delivery{Headers: map[string]string{"x-verify": " tok_1 "}}
	if err := verifier.Verify(context.Background(), ok); err != nil {
		t.Fatalf("matching token rejected: %v", err)
	}
	bad := Delivery{Headers: map[string]string{"X-Verify": "tok_2"}}
	if err := verifier.Verify(context.Background(), bad); err == nil {
		t.Fatalf("mismatched token accepted")
	}
	if err := verifier.Verify(context.Background(), Delivery{}); err == nil {
		t.Fatalf("missing header accepted")
	}
}
