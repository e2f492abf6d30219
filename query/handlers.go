package query

import (
	"context"
	"sort"
	"time"

	"github.com/goliatone/go-payments/core"
)

// ConnectorCapabilities is the read-side view of one registered
// connector: which flows its transformer implements and how it shapes
// amounts and multi-capture reconciliation.
type ConnectorCapabilities struct {
	ID                   string
	Flows                []core.Flow
	AmountRepresentation core.AmountRepresentation
	CaptureSyncMethod    core.CaptureSyncMethod
	AccessTokenAuth      bool
	WebhookTranslation   bool
}

// AccessTokenState reports whether a bearer token is cached for an
// account without exposing the token itself.
type AccessTokenState struct {
	Cached    bool
	CreatedAt time.Time
	ExpiresIn time.Duration
}

type ListConnectorsQuery struct {
	service *core.Service
}

func NewListConnectorsQuery(service *core.Service) *ListConnectorsQuery {
	return &ListConnectorsQuery{service: service}
}

func (q *ListConnectorsQuery) Query(ctx context.Context, msg ListConnectorsMessage) ([]string, error) {
	if q == nil || q.service == nil {
		return nil, queryDependencyError("query: payments service is required")
	}
	connectors := q.service.Registry().List()
	ids := make([]string, 0, len(connectors))
	for _, connector := range connectors {
		ids = append(ids, connector.ID())
	}
	sort.Strings(ids)
	return ids, nil
}

type GetConnectorCapabilitiesQuery struct {
	service *core.Service
}

func NewGetConnectorCapabilitiesQuery(service *core.Service) *GetConnectorCapabilitiesQuery {
	return &GetConnectorCapabilitiesQuery{service: service}
}

func (q *GetConnectorCapabilitiesQuery) Query(ctx context.Context, msg GetConnectorCapabilitiesMessage) (ConnectorCapabilities, error) {
	if q == nil || q.service == nil {
		return ConnectorCapabilities{}, queryDependencyError("query: payments service is required")
	}
	if err := msg.Validate(); err != nil {
		return ConnectorCapabilities{}, err
	}
	connector, ok := q.service.Registry().Get(msg.ConnectorID)
	if !ok {
		return ConnectorCapabilities{}, queryNotFoundError("query: connector " + msg.ConnectorID + " is not registered")
	}
	return describeConnector(connector), nil
}

// describeConnector derives the flow list from the optional interfaces
// the transformer implements, in the same order the orchestrator
// dispatches them.
func describeConnector(connector core.Connector) ConnectorCapabilities {
	caps := ConnectorCapabilities{
		ID:                   connector.ID(),
		AmountRepresentation: connector.AmountRepresentation(),
		CaptureSyncMethod:    connector.CaptureSyncMethod(),
	}
	if _, ok := connector.(core.PaymentAuthorizer); ok {
		caps.Flows = append(caps.Flows, core.FlowAuthorize)
	}
	if _, ok := connector.(core.PaymentCapturer); ok {
		caps.Flows = append(caps.Flows, core.FlowCapture)
	}
	if _, ok := connector.(core.PaymentVoider); ok {
		caps.Flows = append(caps.Flows, core.FlowVoid)
	}
	if _, ok := connector.(core.RefundExecutor); ok {
		caps.Flows = append(caps.Flows, core.FlowRefund)
	}
	if _, ok := connector.(core.PaymentSyncer); ok {
		caps.Flows = append(caps.Flows, core.FlowPaymentSync)
	}
	if _, ok := connector.(core.RefundSyncer); ok {
		caps.Flows = append(caps.Flows, core.FlowRefundSync)
	}
	if _, ok := connector.(core.MandateSetup); ok {
		caps.Flows = append(caps.Flows, core.FlowSetupMandate)
	}
	if _, ok := connector.(core.PaymentConfirmer); ok {
		caps.Flows = append(caps.Flows, core.FlowConfirm)
	}
	_, caps.AccessTokenAuth = connector.(core.AccessTokenAuthenticator)
	_, caps.WebhookTranslation = connector.(core.WebhookTranslator)
	return caps
}

type GetAccessTokenStateQuery struct {
	service *core.Service
}

func NewGetAccessTokenStateQuery(service *core.Service) *GetAccessTokenStateQuery {
	return &GetAccessTokenStateQuery{service: service}
}

func (q *GetAccessTokenStateQuery) Query(ctx context.Context, msg GetAccessTokenStateMessage) (AccessTokenState, error) {
	if q == nil || q.service == nil {
		return AccessTokenState{}, queryDependencyError("query: payments service is required")
	}
	if err := msg.Validate(); err != nil {
		return AccessTokenState{}, err
	}
	token, found, err := q.service.AccessTokens().Get(ctx, core.AccessTokenKey{
		Connector:                  msg.ConnectorID,
		MerchantConnectorAccountID: msg.MerchantConnectorAccountID,
		CredentialSetID:            msg.CredentialSetID,
	})
	if err != nil {
		return AccessTokenState{}, err
	}
	if !found {
		return AccessTokenState{}, nil
	}
	return AccessTokenState{
		Cached:    true,
		CreatedAt: token.CreatedAt,
		ExpiresIn: token.ExpiresIn,
	}, nil
}
