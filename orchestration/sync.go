package orchestration

import (
	"context"

	"github.com/goliatone/go-payments/core"
)

// SyncState traces how far a status poll progressed. Aborted means the
// pre-dispatch gate refused the call: no bytes moved and the envelope
// still holds its prior state.
type SyncState string

const (
	SyncNotStarted       SyncState = "not_started"
	SyncRequestBuilt     SyncState = "request_built"
	SyncDispatched       SyncState = "dispatched"
	SyncResponseReceived SyncState = "response_received"
	SyncFinalized        SyncState = "finalized"
	SyncAborted          SyncState = "aborted"
)

// CaptureOutcome is one capture's reconciled status in an individual
// multi-capture sync. A business decline lands here as a failure entry;
// it does not abort the surrounding operation.
type CaptureOutcome struct {
	Status core.AttemptStatus
	Error  *core.ErrorResponse
}

type SyncResult struct {
	State    SyncState
	Captures map[string]CaptureOutcome
}

type syncOptions struct {
	presupplied *core.WireResponse
}

type SyncOption func(*syncOptions)

// WithWebhookResponse replays an inbound event body through the sync
// parser instead of polling the processor. Trigger and replay share
// every step after dispatch.
func WithWebhookResponse(res core.WireResponse) SyncOption {
	return func(o *syncOptions) {
		o.presupplied = &res
	}
}

func (o *Orchestrator) SyncPayment(ctx context.Context, data *core.RouterData[core.SyncRequest, core.PaymentsResponse], options ...SyncOption) (SyncResult, error) {
	started := o.now()
	result, err := o.syncPayment(ctx, data, options...)
	fields := flowFields(core.FlowPaymentSync, data, data.Request.PaymentID)
	fields["sync_state"] = string(result.State)
	o.service.ObserveOperation(ctx, started, "payment_sync", err, fields)
	return result, err
}

func (o *Orchestrator) syncPayment(ctx context.Context, data *core.RouterData[core.SyncRequest, core.PaymentsResponse], options ...SyncOption) (SyncResult, error) {
	opts := syncOptions{}
	for _, option := range options {
		option(&opts)
	}

	result := SyncResult{State: SyncNotStarted}
	connector, err := o.connector(data.Connector)
	if err != nil {
		return result, err
	}

	if o.useGateway(connector.ID(), core.FlowPaymentSync) {
		if err := gatewayPaymentCall(ctx, o, core.FlowPaymentSync, data, data.Request.PaymentID); err != nil {
			return result, err
		}
		result.State = SyncFinalized
		recordAmountIntegrity(data, data.Request.Amount, data.Request.Currency)
		return result, nil
	}

	syncer, ok := connector.(core.PaymentSyncer)
	if !ok {
		return result, o.service.MapError(core.FlowNotSupportedError(core.FlowPaymentSync, connector.ID()))
	}
	if !syncer.SupportsSync(data.Request) {
		result.State = SyncAborted
		return result, nil
	}

	if err := ensureAccessToken(ctx, o, connector, data); err != nil {
		return result, err
	}

	// A replayed webhook body already describes the whole payment, so it
	// never fans out per capture.
	if opts.presupplied == nil && connector.CaptureSyncMethod() == core.CaptureSyncIndividual && len(data.Request.PendingCaptureIDs) > 0 {
		return o.syncCaptures(ctx, connector, syncer, data)
	}

	wire, err := syncer.BuildSyncRequest(data, "")
	if err != nil {
		return result, o.service.MapError(err)
	}
	result.State = SyncRequestBuilt

	res := core.WireResponse{}
	if opts.presupplied != nil {
		res = *opts.presupplied
	} else {
		res, err = o.dispatchWire(ctx, connector, data.MerchantConnectorAccountID, core.FlowPaymentSync, wire)
		if err != nil {
			return result, dispatchError(ctx, data, err)
		}
	}
	result.State = SyncDispatched

	if err := syncer.ParseSyncResponse(data, res); err != nil {
		return result, o.service.MapError(err)
	}
	result.State = SyncResponseReceived

	recordAmountIntegrity(data, data.Request.Amount, data.Request.Currency)
	result.State = SyncFinalized
	return result, nil
}

// syncCaptures reconciles each pending capture with its own call and
// builds the capture-id outcome map. A structural fault on any call
// fails the whole operation; a per-capture decline is recorded and the
// iteration continues.
func (o *Orchestrator) syncCaptures(ctx context.Context, connector core.Connector, syncer core.PaymentSyncer, data *core.RouterData[core.SyncRequest, core.PaymentsResponse]) (SyncResult, error) {
	result := SyncResult{
		State:    SyncNotStarted,
		Captures: make(map[string]CaptureOutcome, len(data.Request.PendingCaptureIDs)),
	}

	charged := 0
	var chargedAmount core.MinorUnit
	for _, captureID := range data.Request.PendingCaptureIDs {
		wire, err := syncer.BuildSyncRequest(data, captureID)
		if err != nil {
			return result, o.service.MapError(err)
		}
		result.State = SyncRequestBuilt

		res, err := o.dispatchWire(ctx, connector, data.MerchantConnectorAccountID, core.FlowPaymentSync, wire)
		if err != nil {
			return result, dispatchError(ctx, data, err)
		}
		result.State = SyncDispatched

		// Each capture parses into its own scratch envelope so one
		// capture's outcome never clobbers another's.
		scratch := *data
		scratch.Status = ""
		scratch.Response = nil
		scratch.Error = nil
		if err := syncer.ParseSyncResponse(&scratch, res); err != nil {
			return result, o.service.MapError(err)
		}
		result.State = SyncResponseReceived

		outcome := CaptureOutcome{Status: scratch.Status, Error: scratch.Error}
		result.Captures[captureID] = outcome
		if scratch.Status == core.AttemptCharged {
			charged++
			if scratch.Response != nil && scratch.Response.AmountCaptured != nil {
				chargedAmount += *scratch.Response.AmountCaptured
			}
		}
	}

	switch {
	case charged == len(data.Request.PendingCaptureIDs):
		err := data.SetResponse(core.AttemptCharged, core.PaymentsResponse{
			ConnectorTransactionID: data.Request.ConnectorTransactionID,
		})
		if err != nil {
			return result, err
		}
	case charged > 0:
		err := data.SetResponse(core.AttemptPartialCharged, core.PaymentsResponse{
			ConnectorTransactionID: data.Request.ConnectorTransactionID,
		})
		if err != nil {
			return result, err
		}
	}
	if charged > 0 && chargedAmount > 0 {
		data.AmountCaptured = &chargedAmount
		data.CurrencyCaptured = data.Request.Currency
	}
	result.State = SyncFinalized
	return result, nil
}
