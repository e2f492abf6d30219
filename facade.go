package payments

import (
	"fmt"

	"github.com/goliatone/go-payments/command"
	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/orchestration"
	"github.com/goliatone/go-payments/query"
	"github.com/goliatone/go-payments/ucs"
	"github.com/goliatone/go-payments/webhooks"
)

// Commands groups the write-side handlers, one per payment flow.
type Commands struct {
	Authorize    *command.AuthorizeCommand
	Capture      *command.CaptureCommand
	Void         *command.VoidCommand
	Refund       *command.RefundCommand
	SetupMandate *command.SetupMandateCommand
	Confirm      *command.ConfirmCommand
	SyncPayment  *command.SyncPaymentCommand
	SyncRefund   *command.SyncRefundCommand
}

// Queries groups the read-side handlers.
type Queries struct {
	ListConnectors           *query.ListConnectorsQuery
	GetConnectorCapabilities *query.GetConnectorCapabilitiesQuery
	GetAccessTokenState      *query.GetAccessTokenStateQuery
}

// Payments is the assembled module: service, orchestrator, webhook
// pipeline, and the command/query surface over them.
type Payments struct {
	Service      *core.Service
	Orchestrator *orchestration.Orchestrator
	Webhooks     *webhooks.Processor
	Commands     Commands
	Queries      Queries
}

type builder struct {
	serviceOptions      []core.Option
	orchestratorOptions []orchestration.Option
	connectors          []core.Connector
	gateway             ucs.Client
}

type BuildOption func(*builder)

func WithServiceOptions(options ...core.Option) BuildOption {
	return func(b *builder) {
		b.serviceOptions = append(b.serviceOptions, options...)
	}
}

func WithOrchestratorOptions(options ...orchestration.Option) BuildOption {
	return func(b *builder) {
		b.orchestratorOptions = append(b.orchestratorOptions, options...)
	}
}

// WithConnectors replaces the built-in connector set.
func WithConnectors(connectors ...core.Connector) BuildOption {
	return func(b *builder) {
		b.connectors = connectors
	}
}

// WithGatewayClient overrides the gateway client built from config,
// mainly for tests.
func WithGatewayClient(gateway ucs.Client) BuildOption {
	return func(b *builder) {
		b.gateway = gateway
	}
}

// New assembles the module. When the config enables the gateway a UCS
// client is built from its base URL unless one was supplied.
func New(cfg Config, options ...BuildOption) (*Payments, error) {
	b := &builder{}
	for _, option := range options {
		option(b)
	}

	service, err := core.NewService(cfg, b.serviceOptions...)
	if err != nil {
		return nil, fmt.Errorf("payments: build service: %w", err)
	}

	connectors := b.connectors
	if connectors == nil {
		connectors = DefaultConnectors()
	}
	for _, connector := range connectors {
		if err := service.RegisterConnector(connector); err != nil {
			return nil, fmt.Errorf("payments: register connector: %w", err)
		}
	}

	orchestratorOptions := b.orchestratorOptions
	if cfg.UCS.Enabled {
		gateway := b.gateway
		if gateway == nil {
			gateway = ucs.NewHTTPClient(cfg.UCS.BaseURL, nil)
		}
		orchestratorOptions = append(orchestratorOptions, orchestration.WithGateway(gateway))
	}

	orchestrator, err := orchestration.New(service, orchestratorOptions...)
	if err != nil {
		return nil, fmt.Errorf("payments: build orchestrator: %w", err)
	}

	processor, err := webhooks.NewProcessor(service, orchestrator)
	if err != nil {
		return nil, fmt.Errorf("payments: build webhook processor: %w", err)
	}

	return &Payments{
		Service:      service,
		Orchestrator: orchestrator,
		Webhooks:     processor,
		Commands: Commands{
			Authorize:    command.NewAuthorizeCommand(orchestrator),
			Capture:      command.NewCaptureCommand(orchestrator),
			Void:         command.NewVoidCommand(orchestrator),
			Refund:       command.NewRefundCommand(orchestrator),
			SetupMandate: command.NewSetupMandateCommand(orchestrator),
			Confirm:      command.NewConfirmCommand(orchestrator),
			SyncPayment:  command.NewSyncPaymentCommand(orchestrator),
			SyncRefund:   command.NewSyncRefundCommand(orchestrator),
		},
		Queries: Queries{
			ListConnectors:           query.NewListConnectorsQuery(service),
			GetConnectorCapabilities: query.NewGetConnectorCapabilitiesQuery(service),
			GetAccessTokenState:      query.NewGetAccessTokenStateQuery(service),
		},
	}, nil
}
