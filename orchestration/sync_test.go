package orchestration

import (
	"context"
	"reflect"
	"testing"

	"github.com/goliatone/go-payments/core"
)

func syncEnvelope(captureIDs ...string) *core.RouterData[core.SyncRequest, core.PaymentsResponse] {
	return &core.RouterData[core.SyncRequest, core.PaymentsResponse]{
		Connector:                  "stub",
		MerchantConnectorAccountID: "mca_1",
		Auth:                       core.ConnectorAuth{Kind: core.AuthHeaderKey, APIKey: core.NewSecret("k")},
		Request: core.SyncRequest{
			PaymentID:              "pay_1",
			ConnectorTransactionID: "txn_1",
			Amount:                 core.MinorUnit(1050),
			Currency:               core.CurrencyUSD,
			PendingCaptureIDs:      captureIDs,
		},
	}
}

func TestSyncPayment_AbortedSkipsTheNetwork(t *testing.T) {
	connector := newStubConnector()
	connector.supportsSync = false
	service := newTestService(t, core.DefaultConfig(), connector)
	executor := &stubExecutor{}
	orchestrator, _ := New(service, WithExecutor(executor))

	data := syncEnvelope()
	if err := data.SetResponse(core.AttemptAuthorized, core.PaymentsResponse{ConnectorTransactionID: "txn_1"}); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	before := *data

	result, err := orchestrator.SyncPayment(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != SyncAborted {
		t.Fatalf("expected aborted, got %q", result.State)
	}
	if len(executor.requests) != 0 {
		t.Fatalf("aborted sync must not touch the network: %+v", executor.requests)
	}
	if !reflect.DeepEqual(before, *data) {
		t.Fatalf("aborted sync must leave the envelope untouched")
	}
}

func TestSyncPayment_BulkFinalizes(t *testing.T) {
	connector := newStubConnector()
	service := newTestService(t, core.DefaultConfig(), connector)
	executor := &stubExecutor{responses: []core.WireResponse{{StatusCode: 200}}}
	orchestrator, _ := New(service, WithExecutor(executor))

	data := syncEnvelope()
	result, err := orchestrator.SyncPayment(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != SyncFinalized {
		t.Fatalf("expected finalized, got %q", result.State)
	}
	if data.Status != core.AttemptCharged {
		t.Fatalf("unexpected status %q", data.Status)
	}
}

func TestSyncPayment_BusyReplyLeavesPriorStateIntact(t *testing.T) {
	connector := newStubConnector()
	service := newTestService(t, core.DefaultConfig(), connector)
	executor := &stubExecutor{responses: []core.WireResponse{{StatusCode: 503}}}
	orchestrator, _ := New(service, WithExecutor(executor))

	data := syncEnvelope()
	if err := data.SetResponse(core.AttemptAuthorized, core.PaymentsResponse{ConnectorTransactionID: "txn_1"}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	result, err := orchestrator.SyncPayment(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != SyncFinalized {
		t.Fatalf("expected finalized, got %q", result.State)
	}
	if data.Status != core.AttemptAuthorized {
		t.Fatalf("busy reply must preserve prior status, got %q", data.Status)
	}
}

func TestSyncPayment_IndividualCapturesBuildOutcomeMap(t *testing.T) {
	connector := newStubConnector()
	connector.syncMethod = core.CaptureSyncIndividual
	service := newTestService(t, core.DefaultConfig(), connector)
	// A charged, B declined, C charged.
	executor := &stubExecutor{responses: []core.WireResponse{
		{StatusCode: 200},
		{StatusCode: 402},
		{StatusCode: 200},
	}}
	orchestrator, _ := New(service, WithExecutor(executor))

	data := syncEnvelope("cap_a", "cap_b", "cap_c")
	result, err := orchestrator.SyncPayment(context.Background(), data)
	if err != nil {
		t.Fatalf("a per-capture decline must not abort the operation: %v", err)
	}
	if result.State != SyncFinalized {
		t.Fatalf("expected finalized, got %q", result.State)
	}
	if len(result.Captures) != 3 {
		t.Fatalf("expected one outcome per capture, got %d", len(result.Captures))
	}
	if result.Captures["cap_a"].Status != core.AttemptCharged {
		t.Fatalf("unexpected outcome for cap_a: %+v", result.Captures["cap_a"])
	}
	declined := result.Captures["cap_b"]
	if declined.Status != core.AttemptCaptureFailed || declined.Error == nil || declined.Error.Code != "capture_declined" {
		t.Fatalf("declined capture must carry its error: %+v", declined)
	}
	if result.Captures["cap_c"].Status != core.AttemptCharged {
		t.Fatalf("unexpected outcome for cap_c: %+v", result.Captures["cap_c"])
	}
	if data.Status != core.AttemptPartialCharged {
		t.Fatalf("mixed captures must aggregate to partial_charged, got %q", data.Status)
	}

	wantPaths := []string{
		"/payments/txn_1/captures/cap_a",
		"/payments/txn_1/captures/cap_b",
		"/payments/txn_1/captures/cap_c",
	}
	for i, want := range wantPaths {
		if executor.requests[i].Path != want {
			t.Fatalf("capture %d dispatched to %q, want %q", i, executor.requests[i].Path, want)
		}
	}
}

func TestSyncPayment_IndividualStructuralFaultFailsWholeOperation(t *testing.T) {
	connector := newStubConnector()
	connector.syncMethod = core.CaptureSyncIndividual
	service := newTestService(t, core.DefaultConfig(), connector)
	executor := &stubExecutor{responses: []core.WireResponse{
		{StatusCode: 200},
		{StatusCode: 500},
	}}
	orchestrator, _ := New(service, WithExecutor(executor))

	data := syncEnvelope("cap_a", "cap_b", "cap_c")
	_, err := orchestrator.SyncPayment(context.Background(), data)
	if err == nil {
		t.Fatalf("a structural fault must fail the whole operation")
	}
	if len(executor.requests) != 2 {
		t.Fatalf("iteration must stop at the fault, got %d calls", len(executor.requests))
	}
}

func TestSyncPayment_AllCapturesChargedAggregatesToCharged(t *testing.T) {
	connector := newStubConnector()
	connector.syncMethod = core.CaptureSyncIndividual
	service := newTestService(t, core.DefaultConfig(), connector)
	executor := &stubExecutor{responses: []core.WireResponse{
		{StatusCode: 200},
		{StatusCode: 200},
	}}
	orchestrator, _ := New(service, WithExecutor(executor))

	data := syncEnvelope("cap_a", "cap_b")
	result, err := orchestrator.SyncPayment(context.Background(), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Status != core.AttemptCharged {
		t.Fatalf("all charged captures must aggregate to charged, got %q", data.Status)
	}
	if result.State != SyncFinalized {
		t.Fatalf("expected finalized, got %q", result.State)
	}
}

func TestSyncPayment_WebhookReplaySharesTheParsePath(t *testing.T) {
	connector := newStubConnector()
	service := newTestService(t, core.DefaultConfig(), connector)
	executor := &stubExecutor{}
	orchestrator, _ := New(service, WithExecutor(executor))

	data := syncEnvelope()
	result, err := orchestrator.SyncPayment(context.Background(), data,
		WithWebhookResponse(core.WireResponse{StatusCode: 200, Body: []byte(`{}`)}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != SyncFinalized {
		t.Fatalf("expected finalized, got %q", result.State)
	}
	if len(executor.requests) != 0 {
		t.Fatalf("replay must not poll the processor: %+v", executor.requests)
	}
	if data.Status != core.AttemptCharged {
		t.Fatalf("unexpected status %q", data.Status)
	}
}
