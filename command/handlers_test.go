package command

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/orchestration"
)

type stubOrchestrator struct {
	authorizeFn    func(ctx context.Context, data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]) error
	captureFn      func(ctx context.Context, data *core.RouterData[core.CaptureRequest, core.PaymentsResponse]) error
	voidFn         func(ctx context.Context, data *core.RouterData[core.VoidRequest, core.PaymentsResponse]) error
	refundFn       func(ctx context.Context, data *core.RouterData[core.RefundRequest, core.RefundResponse]) error
	setupMandateFn func(ctx context.Context, data *core.RouterData[core.SetupMandateRequest, core.PaymentsResponse]) error
	confirmFn      func(ctx context.Context, data *core.RouterData[core.ConfirmRequest, core.PaymentsResponse]) error
	syncPaymentFn  func(ctx context.Context, data *core.RouterData[core.SyncRequest, core.PaymentsResponse], options ...orchestration.SyncOption) (orchestration.SyncResult, error)
	syncRefundFn   func(ctx context.Context, data *core.RouterData[core.RefundSyncRequest, core.RefundResponse]) error
}

func (s stubOrchestrator) Authorize(ctx context.Context, data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]) error {
	return s.authorizeFn(ctx, data)
}

func (s stubOrchestrator) Capture(ctx context.Context, data *core.RouterData[core.CaptureRequest, core.PaymentsResponse]) error {
	return s.captureFn(ctx, data)
}

func (s stubOrchestrator) Void(ctx context.Context, data *core.RouterData[core.VoidRequest, core.PaymentsResponse]) error {
	return s.voidFn(ctx, data)
}

func (s stubOrchestrator) Refund(ctx context.Context, data *core.RouterData[core.RefundRequest, core.RefundResponse]) error {
	return s.refundFn(ctx, data)
}

func (s stubOrchestrator) SetupMandate(ctx context.Context, data *core.RouterData[core.SetupMandateRequest, core.PaymentsResponse]) error {
	return s.setupMandateFn(ctx, data)
}

func (s stubOrchestrator) Confirm(ctx context.Context, data *core.RouterData[core.ConfirmRequest, core.PaymentsResponse]) error {
	return s.confirmFn(ctx, data)
}

func (s stubOrchestrator) SyncPayment(ctx context.Context, data *core.RouterData[core.SyncRequest, core.PaymentsResponse], options ...orchestration.SyncOption) (orchestration.SyncResult, error) {
	return s.syncPaymentFn(ctx, data, options...)
}

func (s stubOrchestrator) SyncRefund(ctx context.Context, data *core.RouterData[core.RefundSyncRequest, core.RefundResponse]) error {
	return s.syncRefundFn(ctx, data)
}

func authorizeData() *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse] {
	return &core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]{
		Connector: "checkout",
		Request: core.AuthorizeRequest{
			PaymentID:     "pay_1",
			Amount:        core.MinorUnit(1050),
			Currency:      core.CurrencyUSD,
			PaymentMethod: core.PaymentMethodData{Card: &core.CardData{
				Number:   core.NewSecret("4242424242424242"),
				ExpMonth: "10",
				ExpYear:  "2030",
			}},
		},
	}
}

func TestAuthorizeCommand_ExecuteDelegates(t *testing.T) {
	called := false
	orchestrator := stubOrchestrator{
		authorizeFn: func(_ context.Context, data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]) error {
			called = true
			if data.Request.PaymentID != "pay_1" {
				t.Fatalf("expected payment pay_1, got %q", data.Request.PaymentID)
			}
			return data.SetResponse(core.AttemptAuthorized, core.PaymentsResponse{ConnectorTransactionID: "txn_1"})
		},
	}

	cmd := NewAuthorizeCommand(orchestrator)
	data := authorizeData()
	if err := cmd.Execute(context.Background(), AuthorizeMessage{Data: data}); err != nil {
		t.Fatalf("execute authorize: %v", err)
	}
	if !called {
		t.Fatalf("expected orchestrator invocation")
	}
	if data.Status != core.AttemptAuthorized {
		t.Fatalf("outcome must land on the message envelope, got %q", data.Status)
	}
}

func TestAuthorizeCommand_ValidationShortCircuits(t *testing.T) {
	cmd := NewAuthorizeCommand(stubOrchestrator{
		authorizeFn: func(context.Context, *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]) error {
			t.Fatalf("invalid message must not reach the orchestrator")
			return nil
		},
	})

	data := authorizeData()
	data.Request.Amount = 0
	err := cmd.Execute(context.Background(), AuthorizeMessage{Data: data})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.PaymentErrorMissingRequiredField {
		t.Fatalf("unexpected text code %q", rich.TextCode)
	}
}

func TestAuthorizeCommand_NilOrchestratorReturnsRichError(t *testing.T) {
	var cmd *AuthorizeCommand
	err := cmd.Execute(context.Background(), AuthorizeMessage{})
	if err == nil {
		t.Fatalf("expected dependency error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}

func TestSyncPaymentCommand_StoresResult(t *testing.T) {
	expected := orchestration.SyncResult{State: orchestration.SyncFinalized}
	orchestrator := stubOrchestrator{
		syncPaymentFn: func(_ context.Context, data *core.RouterData[core.SyncRequest, core.PaymentsResponse], _ ...orchestration.SyncOption) (orchestration.SyncResult, error) {
			return expected, nil
		},
	}

	cmd := NewSyncPaymentCommand(orchestrator)
	collector := gocmd.NewResult[orchestration.SyncResult]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	msg := SyncPaymentMessage{Data: &core.RouterData[core.SyncRequest, core.PaymentsResponse]{
		Connector: "checkout",
		Request:   core.SyncRequest{PaymentID: "pay_1"},
	}}
	if err := cmd.Execute(ctx, msg); err != nil {
		t.Fatalf("execute sync: %v", err)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected sync result to be stored")
	}
	if result.State != orchestration.SyncFinalized {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestMutationCommands_DelegateToOrchestrator(t *testing.T) {
	t.Run("capture", func(t *testing.T) {
		called := false
		orchestrator := stubOrchestrator{
			captureFn: func(_ context.Context, data *core.RouterData[core.CaptureRequest, core.PaymentsResponse]) error {
				called = true
				if data.Request.AmountToCapture != 500 {
					t.Fatalf("unexpected capture amount %d", data.Request.AmountToCapture)
				}
				return nil
			},
		}
		cmd := NewCaptureCommand(orchestrator)
		msg := CaptureMessage{Data: &core.RouterData[core.CaptureRequest, core.PaymentsResponse]{
			Connector: "checkout",
			Request: core.CaptureRequest{
				PaymentID:              "pay_1",
				ConnectorTransactionID: "txn_1",
				AmountToCapture:        core.MinorUnit(500),
				Currency:               core.CurrencyUSD,
			},
		}}
		if err := cmd.Execute(context.Background(), msg); err != nil {
			t.Fatalf("execute capture: %v", err)
		}
		if !called {
			t.Fatalf("expected capture invocation")
		}
	})

	t.Run("refund", func(t *testing.T) {
		called := false
		orchestrator := stubOrchestrator{
			refundFn: func(_ context.Context, data *core.RouterData[core.RefundRequest, core.RefundResponse]) error {
				called = true
				if data.Request.RefundID != "ref_1" {
					t.Fatalf("unexpected refund id %q", data.Request.RefundID)
				}
				return nil
			},
		}
		cmd := NewRefundCommand(orchestrator)
		msg := RefundMessage{Data: &core.RouterData[core.RefundRequest, core.RefundResponse]{
			Connector: "checkout",
			Request: core.RefundRequest{
				RefundID:               "ref_1",
				PaymentID:              "pay_1",
				ConnectorTransactionID: "txn_1",
				Amount:                 core.MinorUnit(500),
				Currency:               core.CurrencyUSD,
			},
		}}
		if err := cmd.Execute(context.Background(), msg); err != nil {
			t.Fatalf("execute refund: %v", err)
		}
		if !called {
			t.Fatalf("expected refund invocation")
		}
	})

	t.Run("void requires transaction id", func(t *testing.T) {
		cmd := NewVoidCommand(stubOrchestrator{
			voidFn: func(context.Context, *core.RouterData[core.VoidRequest, core.PaymentsResponse]) error {
				t.Fatalf("invalid message must not reach the orchestrator")
				return nil
			},
		})
		msg := VoidMessage{Data: &core.RouterData[core.VoidRequest, core.PaymentsResponse]{
			Connector: "checkout",
			Request:   core.VoidRequest{PaymentID: "pay_1"},
		}}
		if err := cmd.Execute(context.Background(), msg); err == nil {
			t.Fatalf("expected validation error")
		}
	})
}
