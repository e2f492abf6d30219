// Package orchestration drives payment flows end to end: it resolves
// the connector, decides between a direct processor call and the
// connector-service gateway, moves wire bytes, and folds the outcome
// back into the router envelope.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/ratelimit"
	"github.com/goliatone/go-payments/transport"
	"github.com/goliatone/go-payments/ucs"
)

// WireExecutor moves one wire request to a processor endpoint.
// *transport.Client is the production implementation.
type WireExecutor interface {
	Execute(ctx context.Context, baseURL string, req core.WireRequest) (core.WireResponse, error)
}

type Orchestrator struct {
	service  *core.Service
	executor WireExecutor
	gateway  ucs.Client
	limiter  *ratelimit.AdaptivePolicy

	now       func() time.Time
	requestID func() string
}

type Option func(*Orchestrator)

func WithExecutor(executor WireExecutor) Option {
	return func(o *Orchestrator) {
		if executor != nil {
			o.executor = executor
		}
	}
}

func WithGateway(gateway ucs.Client) Option {
	return func(o *Orchestrator) {
		o.gateway = gateway
	}
}

// WithRateLimiter throttles direct processor dispatch from the rate
// hints processors return. Gateway calls are not limited here; the
// gateway applies its own budgets.
func WithRateLimiter(limiter *ratelimit.AdaptivePolicy) Option {
	return func(o *Orchestrator) {
		o.limiter = limiter
	}
}

func New(service *core.Service, options ...Option) (*Orchestrator, error) {
	if service == nil {
		return nil, fmt.Errorf("orchestration: service is required")
	}
	o := &Orchestrator{
		service:   service,
		executor:  transport.NewClient(nil),
		now:       time.Now,
		requestID: uuid.NewString,
	}
	for _, option := range options {
		option(o)
	}
	return o, nil
}

func (o *Orchestrator) connector(id string) (core.Connector, error) {
	connector, ok := o.service.Registry().Get(id)
	if !ok {
		return nil, o.service.MapError(fmt.Errorf("orchestration: connector %q is not registered", id))
	}
	return connector, nil
}

func (o *Orchestrator) useGateway(connectorID string, flow core.Flow) bool {
	cfg := o.service.Config()
	return cfg.UCSEnabledFor(connectorID, flow)
}

// dispatchWire moves one request to the processor, consulting the rate
// limiter around the call when one is configured.
func (o *Orchestrator) dispatchWire(ctx context.Context, connector core.Connector, mcaID string, flow core.Flow, wire core.WireRequest) (core.WireResponse, error) {
	key := ratelimit.Key{
		Connector:                  connector.ID(),
		MerchantConnectorAccountID: mcaID,
		Flow:                       string(flow),
	}
	if o.limiter != nil {
		if err := o.limiter.BeforeCall(ctx, key); err != nil {
			var throttled ratelimit.ThrottledError
			if errors.As(err, &throttled) {
				return core.WireResponse{}, throttled.ToPaymentError()
			}
			return core.WireResponse{}, err
		}
	}
	res, err := o.executor.Execute(ctx, connector.BaseURL(), wire)
	if err != nil {
		return core.WireResponse{}, err
	}
	if o.limiter != nil {
		if err := o.limiter.AfterCall(ctx, key, res); err != nil {
			return core.WireResponse{}, err
		}
	}
	return res, nil
}

func (o *Orchestrator) Authorize(ctx context.Context, data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]) error {
	started := o.now()
	err := o.authorize(ctx, data)
	o.service.ObserveOperation(ctx, started, "authorize", err, flowFields(core.FlowAuthorize, data, data.Request.PaymentID))
	return err
}

func (o *Orchestrator) authorize(ctx context.Context, data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]) error {
	connector, err := o.connector(data.Connector)
	if err != nil {
		return err
	}
	if o.useGateway(connector.ID(), core.FlowAuthorize) {
		if err := gatewayPaymentCall(ctx, o, core.FlowAuthorize, data, data.Request.PaymentID); err != nil {
			return err
		}
	} else {
		authorizer, ok := connector.(core.PaymentAuthorizer)
		if !ok {
			return o.service.MapError(core.FlowNotSupportedError(core.FlowAuthorize, connector.ID()))
		}
		err := directCall(ctx, o, connector, core.FlowAuthorize, data, nil,
			func() (core.WireRequest, error) { return authorizer.BuildAuthorizeRequest(data) },
			func(res core.WireResponse) error { return authorizer.ParseAuthorizeResponse(data, res) })
		if err != nil {
			return err
		}
	}
	recordAmountIntegrity(data, data.Request.Amount, data.Request.Currency)
	return nil
}

func (o *Orchestrator) Capture(ctx context.Context, data *core.RouterData[core.CaptureRequest, core.PaymentsResponse]) error {
	started := o.now()
	err := o.capture(ctx, data)
	o.service.ObserveOperation(ctx, started, "capture", err, flowFields(core.FlowCapture, data, data.Request.PaymentID))
	return err
}

func (o *Orchestrator) capture(ctx context.Context, data *core.RouterData[core.CaptureRequest, core.PaymentsResponse]) error {
	connector, err := o.connector(data.Connector)
	if err != nil {
		return err
	}
	if o.useGateway(connector.ID(), core.FlowCapture) {
		if err := gatewayPaymentCall(ctx, o, core.FlowCapture, data, data.Request.PaymentID); err != nil {
			return err
		}
	} else {
		capturer, ok := connector.(core.PaymentCapturer)
		if !ok {
			return o.service.MapError(core.FlowNotSupportedError(core.FlowCapture, connector.ID()))
		}
		err := directCall(ctx, o, connector, core.FlowCapture, data, nil,
			func() (core.WireRequest, error) { return capturer.BuildCaptureRequest(data) },
			func(res core.WireResponse) error { return capturer.ParseCaptureResponse(data, res) })
		if err != nil {
			return err
		}
	}
	recordAmountIntegrity(data, data.Request.AmountToCapture, data.Request.Currency)
	return nil
}

func (o *Orchestrator) Void(ctx context.Context, data *core.RouterData[core.VoidRequest, core.PaymentsResponse]) error {
	started := o.now()
	err := o.void(ctx, data)
	o.service.ObserveOperation(ctx, started, "void", err, flowFields(core.FlowVoid, data, data.Request.PaymentID))
	return err
}

func (o *Orchestrator) void(ctx context.Context, data *core.RouterData[core.VoidRequest, core.PaymentsResponse]) error {
	connector, err := o.connector(data.Connector)
	if err != nil {
		return err
	}
	if o.useGateway(connector.ID(), core.FlowVoid) {
		return gatewayPaymentCall(ctx, o, core.FlowVoid, data, data.Request.PaymentID)
	}
	voider, ok := connector.(core.PaymentVoider)
	if !ok {
		return o.service.MapError(core.FlowNotSupportedError(core.FlowVoid, connector.ID()))
	}
	return directCall(ctx, o, connector, core.FlowVoid, data, nil,
		func() (core.WireRequest, error) { return voider.BuildVoidRequest(data) },
		func(res core.WireResponse) error { return voider.ParseVoidResponse(data, res) })
}

func (o *Orchestrator) Refund(ctx context.Context, data *core.RouterData[core.RefundRequest, core.RefundResponse]) error {
	started := o.now()
	err := o.refund(ctx, data)
	o.service.ObserveOperation(ctx, started, "refund", err, flowFields(core.FlowRefund, data, data.Request.PaymentID))
	return err
}

func (o *Orchestrator) refund(ctx context.Context, data *core.RouterData[core.RefundRequest, core.RefundResponse]) error {
	connector, err := o.connector(data.Connector)
	if err != nil {
		return err
	}
	if o.useGateway(connector.ID(), core.FlowRefund) {
		return gatewayRefundCall(ctx, o, core.FlowRefund, data, data.Request.PaymentID)
	}
	executor, ok := connector.(core.RefundExecutor)
	if !ok {
		return o.service.MapError(core.FlowNotSupportedError(core.FlowRefund, connector.ID()))
	}
	return directCall(ctx, o, connector, core.FlowRefund, data, nil,
		func() (core.WireRequest, error) { return executor.BuildRefundRequest(data) },
		func(res core.WireResponse) error { return executor.ParseRefundResponse(data, res) })
}

func (o *Orchestrator) SyncRefund(ctx context.Context, data *core.RouterData[core.RefundSyncRequest, core.RefundResponse]) error {
	started := o.now()
	err := o.syncRefund(ctx, data)
	o.service.ObserveOperation(ctx, started, "refund_sync", err, flowFields(core.FlowRefundSync, data, data.Request.RefundID))
	return err
}

func (o *Orchestrator) syncRefund(ctx context.Context, data *core.RouterData[core.RefundSyncRequest, core.RefundResponse]) error {
	connector, err := o.connector(data.Connector)
	if err != nil {
		return err
	}
	if o.useGateway(connector.ID(), core.FlowRefundSync) {
		return gatewayRefundCall(ctx, o, core.FlowRefundSync, data, data.Request.RefundID)
	}
	syncer, ok := connector.(core.RefundSyncer)
	if !ok {
		return o.service.MapError(core.FlowNotSupportedError(core.FlowRefundSync, connector.ID()))
	}
	return directCall(ctx, o, connector, core.FlowRefundSync, data, nil,
		func() (core.WireRequest, error) { return syncer.BuildRefundSyncRequest(data) },
		func(res core.WireResponse) error { return syncer.ParseRefundSyncResponse(data, res) })
}

func (o *Orchestrator) SetupMandate(ctx context.Context, data *core.RouterData[core.SetupMandateRequest, core.PaymentsResponse]) error {
	started := o.now()
	err := o.setupMandate(ctx, data)
	o.service.ObserveOperation(ctx, started, "setup_mandate", err, flowFields(core.FlowSetupMandate, data, data.Request.PaymentID))
	return err
}

func (o *Orchestrator) setupMandate(ctx context.Context, data *core.RouterData[core.SetupMandateRequest, core.PaymentsResponse]) error {
	connector, err := o.connector(data.Connector)
	if err != nil {
		return err
	}
	if o.useGateway(connector.ID(), core.FlowSetupMandate) {
		return gatewayPaymentCall(ctx, o, core.FlowSetupMandate, data, data.Request.PaymentID)
	}
	setup, ok := connector.(core.MandateSetup)
	if !ok {
		return o.service.MapError(core.FlowNotSupportedError(core.FlowSetupMandate, connector.ID()))
	}
	return directCall(ctx, o, connector, core.FlowSetupMandate, data, nil,
		func() (core.WireRequest, error) { return setup.BuildSetupMandateRequest(data) },
		func(res core.WireResponse) error { return setup.ParseSetupMandateResponse(data, res) })
}

func (o *Orchestrator) Confirm(ctx context.Context, data *core.RouterData[core.ConfirmRequest, core.PaymentsResponse]) error {
	started := o.now()
	err := o.confirm(ctx, data)
	o.service.ObserveOperation(ctx, started, "confirm", err, flowFields(core.FlowConfirm, data, data.Request.PaymentID))
	return err
}

func (o *Orchestrator) confirm(ctx context.Context, data *core.RouterData[core.ConfirmRequest, core.PaymentsResponse]) error {
	connector, err := o.connector(data.Connector)
	if err != nil {
		return err
	}
	if o.useGateway(connector.ID(), core.FlowConfirm) {
		if err := gatewayPaymentCall(ctx, o, core.FlowConfirm, data, data.Request.PaymentID); err != nil {
			return err
		}
	} else {
		confirmer, ok := connector.(core.PaymentConfirmer)
		if !ok {
			return o.service.MapError(core.FlowNotSupportedError(core.FlowConfirm, connector.ID()))
		}
		err := directCall(ctx, o, connector, core.FlowConfirm, data, nil,
			func() (core.WireRequest, error) { return confirmer.BuildConfirmRequest(data) },
			func(res core.WireResponse) error { return confirmer.ParseConfirmResponse(data, res) })
		if err != nil {
			return err
		}
	}
	recordAmountIntegrity(data, data.Request.Amount, data.Request.Currency)
	return nil
}

// directCall runs the build-dispatch-parse cycle against the processor.
// A presupplied response short-circuits dispatch; that is how webhook
// replay shares this path.
func directCall[Req any, Resp any](
	ctx context.Context,
	o *Orchestrator,
	connector core.Connector,
	flow core.Flow,
	data *core.RouterData[Req, Resp],
	presupplied *core.WireResponse,
	build func() (core.WireRequest, error),
	parse func(core.WireResponse) error,
) error {
	if err := ensureAccessToken(ctx, o, connector, data); err != nil {
		return err
	}
	wire, err := build()
	if err != nil {
		return o.service.MapError(err)
	}
	res := core.WireResponse{}
	if presupplied != nil {
		res = *presupplied
	} else {
		res, err = o.dispatchWire(ctx, connector, data.MerchantConnectorAccountID, flow, wire)
		if err != nil {
			return dispatchError(ctx, data, err)
		}
	}
	if err := parse(res); err != nil {
		return o.service.MapError(err)
	}
	return nil
}

// dispatchError keeps a caller-side abort out of the failure states: a
// cancelled call proved nothing about the payment, so the attempt stays
// in flight rather than being declared failed.
func dispatchError[Req any, Resp any](ctx context.Context, data *core.RouterData[Req, Resp], err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if data.Status == "" {
			data.Status = core.AttemptPending
		}
		return err
	}
	return err
}

// ensureAccessToken populates the envelope's bearer token for
// connectors that need one: cache hit first, exchange on miss or
// expiry. The store key carries the credential-set discriminator so
// parallel credential sets never share tokens.
func ensureAccessToken[Req any, Resp any](ctx context.Context, o *Orchestrator, connector core.Connector, data *core.RouterData[Req, Resp]) error {
	authenticator, ok := connector.(core.AccessTokenAuthenticator)
	if !ok {
		return nil
	}
	store := o.service.AccessTokens()
	key := core.AccessTokenKey{
		Connector:                  connector.ID(),
		MerchantConnectorAccountID: data.MerchantConnectorAccountID,
		CredentialSetID:            data.CredentialSetID,
	}
	if token, found, err := store.Get(ctx, key); err != nil {
		return err
	} else if found {
		data.AccessToken = &token
		return nil
	}

	wire, err := authenticator.BuildAccessTokenRequest(data.Auth)
	if err != nil {
		return o.service.MapError(err)
	}
	res, err := o.executor.Execute(ctx, connector.BaseURL(), wire)
	if err != nil {
		return dispatchError(ctx, data, err)
	}
	token, err := authenticator.ParseAccessTokenResponse(res)
	if err != nil {
		return o.service.MapError(err)
	}
	if err := store.Put(ctx, key, token); err != nil {
		return err
	}
	data.AccessToken = &token
	return nil
}

// gatewayPaymentCall executes a payment-shaped flow through the
// connector-service gateway and folds the canonical reply back.
func gatewayPaymentCall[Req any](ctx context.Context, o *Orchestrator, flow core.Flow, data *core.RouterData[Req, core.PaymentsResponse], paymentID string) error {
	reply, err := gatewayExecute(ctx, o, flow, data, paymentID)
	if err != nil {
		return err
	}
	data.RawConnectorResponse = reply.RawConnectorResponse
	if reply.Status.IsPaymentFailure() {
		errResp := core.ErrorResponse{HTTPStatus: reply.HTTPStatus}
		if reply.Error != nil {
			errResp = *reply.Error
		}
		return data.SetError(reply.Status, errResp)
	}
	response := core.PaymentsResponse{}
	if reply.Payments != nil {
		response = *reply.Payments
	}
	if reply.CapturedAmount != nil {
		response.AmountCaptured = reply.CapturedAmount
		response.Currency = reply.Currency
	}
	return data.SetResponse(reply.Status, response)
}

func gatewayRefundCall[Req any](ctx context.Context, o *Orchestrator, flow core.Flow, data *core.RouterData[Req, core.RefundResponse], refundID string) error {
	reply, err := gatewayExecute(ctx, o, flow, data, refundID)
	if err != nil {
		return err
	}
	data.RawConnectorResponse = reply.RawConnectorResponse
	if reply.Status.IsPaymentFailure() {
		errResp := core.ErrorResponse{HTTPStatus: reply.HTTPStatus}
		if reply.Error != nil {
			errResp = *reply.Error
		}
		return data.SetError(reply.Status, errResp)
	}
	response := core.RefundResponse{}
	if reply.Refund != nil {
		response = *reply.Refund
	}
	status := reply.Status
	if status == "" {
		status = core.AttemptPending
	}
	return data.SetResponse(status, response)
}

func gatewayExecute[Req any, Resp any](ctx context.Context, o *Orchestrator, flow core.Flow, data *core.RouterData[Req, Resp], entityID string) (ucs.Reply, error) {
	if o.gateway == nil {
		return ucs.Reply{}, o.service.MapError(fmt.Errorf("orchestration: gateway dispatch enabled for %s/%s but no gateway client is configured", data.Connector, flow))
	}
	reply, err := o.gateway.Execute(ctx, ucs.Request{
		Connector: data.Connector,
		Flow:      flow,
		Lineage: ucs.Lineage{
			MerchantConnectorAccountID: data.MerchantConnectorAccountID,
			PaymentID:                  entityID,
			RequestID:                  o.requestID(),
		},
		Auth:        data.Auth,
		AccessToken: data.AccessToken,
		Payload:     data.Request,
	})
	if err != nil {
		return ucs.Reply{}, dispatchError(ctx, data, err)
	}
	if reply.RefreshedToken != nil {
		key := core.AccessTokenKey{
			Connector:                  data.Connector,
			MerchantConnectorAccountID: data.MerchantConnectorAccountID,
			CredentialSetID:            data.CredentialSetID,
		}
		if err := o.service.AccessTokens().Put(ctx, key, *reply.RefreshedToken); err != nil {
			return ucs.Reply{}, err
		}
		data.AccessToken = reply.RefreshedToken
	}
	return reply, nil
}

// recordAmountIntegrity reconciles what was asked for against what the
// processor reports. A mismatch is recorded on the envelope and logged
// by the caller's observation; it never turns a success into a failure.
func recordAmountIntegrity[Req any](data *core.RouterData[Req, core.PaymentsResponse], expectedAmount core.MinorUnit, expectedCurrency core.Currency) {
	if data.Response == nil {
		return
	}
	check := core.IntegrityCheck{Passed: true}
	switch {
	case data.Response.AmountCaptured != nil && *data.Response.AmountCaptured != expectedAmount:
		check = core.IntegrityCheck{
			Field:    "amount",
			Expected: strconv.FormatInt(int64(expectedAmount), 10),
			Actual:   strconv.FormatInt(int64(*data.Response.AmountCaptured), 10),
		}
	case data.Response.Currency != "" && data.Response.Currency != expectedCurrency:
		check = core.IntegrityCheck{
			Field:    "currency",
			Expected: string(expectedCurrency),
			Actual:   string(data.Response.Currency),
		}
	}
	data.Integrity = &check
	if data.Response.AmountCaptured != nil {
		data.AmountCaptured = data.Response.AmountCaptured
		data.CurrencyCaptured = data.Response.Currency
	}
}

func flowFields[Req any, Resp any](flow core.Flow, data *core.RouterData[Req, Resp], entityID string) map[string]any {
	return map[string]any{
		"connector":                     data.Connector,
		"flow":                          string(flow),
		"payment_id":                    entityID,
		"merchant_connector_account_id": data.MerchantConnectorAccountID,
	}
}
