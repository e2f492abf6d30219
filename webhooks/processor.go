package webhooks

import (
	"context"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/orchestration"
)

// Delivery is one raw inbound push from a processor, together with the
// merchant account context the caller resolved for it.
type Delivery struct {
	Connector                  string
	Headers                    map[string]string
	Body                       []byte
	MerchantConnectorAccountID string
	Auth                       core.ConnectorAuth
}

// Result reports what happened to a delivery. Deduped deliveries are
// accepted with a 200 so the processor stops resending them.
type Result struct {
	Accepted   bool
	StatusCode int
	Deduped    bool
	Event      core.WebhookEvent
	Metadata   map[string]any
}

// Verifier authenticates a delivery before any byte of it is parsed.
type Verifier interface {
	Verify(ctx context.Context, delivery Delivery) error
}

// SyncReplayer is the slice of the orchestrator the replay path needs.
type SyncReplayer interface {
	SyncPayment(
		ctx context.Context,
		data *core.RouterData[core.SyncRequest, core.PaymentsResponse],
		options ...orchestration.SyncOption,
	) (orchestration.SyncResult, error)
}

var _ SyncReplayer = (*orchestration.Orchestrator)(nil)

// Processor verifies, translates, and dedupes processor push events.
type Processor struct {
	service   *core.Service
	replayer  SyncReplayer
	verifiers map[string]Verifier
	deduper   *EventDeduper
	now       func() time.Time
}

func NewProcessor(service *core.Service, replayer SyncReplayer) (*Processor, error) {
	if service == nil {
		return nil, goerrors.New("webhooks: service is required", goerrors.CategoryBadInput)
	}
	return &Processor{
		service:   service,
		replayer:  replayer,
		verifiers: map[string]Verifier{},
		deduper:   NewEventDeduper(DedupeOptions{}),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// RegisterVerifier installs the signature check for one connector's
// deliveries. Connectors without one are accepted unverified.
func (p *Processor) RegisterVerifier(connectorID string, verifier Verifier) {
	connectorID = strings.TrimSpace(connectorID)
	if connectorID == "" || verifier == nil {
		return
	}
	p.verifiers[connectorID] = verifier
}

// Process runs the inbound pipeline for one delivery: verify, translate
// through the owning connector, dedupe. The translated event is returned
// for the caller to act on; Apply and Replay cover the two usual
// follow-ups.
func (p *Processor) Process(ctx context.Context, delivery Delivery) (Result, error) {
	started := p.now()
	result, err := p.process(ctx, delivery)
	p.service.ObserveOperation(ctx, started, "webhook_inbound", err, map[string]any{
		"connector":  delivery.Connector,
		"event_type": result.Event.EventType,
		"deduped":    result.Deduped,
	})
	return result, err
}

func (p *Processor) process(ctx context.Context, delivery Delivery) (Result, error) {
	connectorID := strings.TrimSpace(delivery.Connector)
	if connectorID == "" {
		return Result{}, p.service.MapError(
			goerrors.New("webhooks: connector id is required", goerrors.CategoryBadInput),
		)
	}
	delivery.Connector = connectorID

	if verifier, ok := p.verifiers[connectorID]; ok {
		if err := verifier.Verify(ctx, delivery); err != nil {
			return Result{
				Accepted:   false,
				StatusCode: http.StatusUnauthorized,
				Metadata:   map[string]any{"connector": connectorID, "rejected": true},
			}, p.service.MapError(err)
		}
	}

	connector, ok := p.service.Registry().Get(connectorID)
	if !ok {
		return Result{}, p.service.MapError(
			goerrors.New("webhooks: connector "+connectorID+" is not registered", goerrors.CategoryNotFound),
		)
	}
	translator, ok := connector.(core.WebhookTranslator)
	if !ok {
		return Result{}, p.service.MapError(core.FlowNotSupportedError("webhook", connectorID))
	}

	event, err := translator.TranslateWebhook(delivery.Body)
	if err != nil {
		return Result{}, p.service.MapError(err)
	}

	if !p.deduper.FirstSeen(connectorID, event) {
		return Result{
			Accepted:   true,
			StatusCode: http.StatusOK,
			Deduped:    true,
			Event:      event,
			Metadata:   map[string]any{"connector": connectorID, "deduped": true},
		}, nil
	}

	return Result{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Event:      event,
		Metadata:   map[string]any{"connector": connectorID},
	}, nil
}

// Apply folds a translated event into a sync envelope the way a parsed
// poll response would be, so everything downstream of the envelope is
// shared between push and pull.
func (p *Processor) Apply(event core.WebhookEvent, data *core.RouterData[core.SyncRequest, core.PaymentsResponse]) error {
	if data == nil {
		return p.service.MapError(
			goerrors.New("webhooks: sync envelope is required", goerrors.CategoryBadInput),
		)
	}
	data.RawConnectorResponse = event.RawPayload
	if event.Status.IsPaymentFailure() {
		return p.service.MapError(data.SetError(event.Status, core.ErrorResponse{
			Reason:                 event.EventType,
			ConnectorTransactionID: event.ReferenceID,
		}))
	}
	return p.service.MapError(data.SetResponse(event.Status, core.PaymentsResponse{
		ConnectorTransactionID: event.ReferenceID,
	}))
}

// Replay pushes the stored payload through the connector's own sync
// parser via the orchestrator. Exactly one connector call, never a
// per-capture loop.
func (p *Processor) Replay(ctx context.Context, delivery Delivery, event core.WebhookEvent) (*core.RouterData[core.SyncRequest, core.PaymentsResponse], orchestration.SyncResult, error) {
	if p.replayer == nil {
		return nil, orchestration.SyncResult{}, p.service.MapError(
			goerrors.New("webhooks: replay requested but no orchestrator is configured", goerrors.CategoryBadInput),
		)
	}
	data := &core.RouterData[core.SyncRequest, core.PaymentsResponse]{
		Connector:                  delivery.Connector,
		MerchantConnectorAccountID: delivery.MerchantConnectorAccountID,
		Auth:                       delivery.Auth,
		Request: core.SyncRequest{
			PaymentID:              event.ReferenceID,
			ConnectorTransactionID: event.ReferenceID,
		},
	}
	result, err := p.replayer.SyncPayment(ctx, data, orchestration.WithWebhookResponse(core.WireResponse{
		StatusCode: http.StatusOK,
		Body:       event.RawPayload,
	}))
	return data, result, err
}
