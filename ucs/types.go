// Package ucs talks to the unified connector-service gateway: an
// out-of-process runner that executes connector logic remotely and
// replies in the canonical shape. Selecting it is a dispatch decision;
// flow semantics are identical to a direct call.
package ucs

import (
	"context"

	"github.com/goliatone/go-payments/core"
)

// Lineage identifies the payment the gateway call belongs to. It
// travels as request metadata so gateway-side logs line up with ours.
type Lineage struct {
	MerchantID                 string
	MerchantConnectorAccountID string
	PaymentID                  string
	AttemptID                  string
	RequestID                  string
}

// Request is one flow execution handed to the gateway. Payload is the
// canonical flow request; the gateway owns the connector wire format.
type Request struct {
	Connector   string
	Flow        core.Flow
	Lineage     Lineage
	Auth        core.ConnectorAuth
	AccessToken *core.AccessToken
	Payload     any
}

// Reply is the gateway's canonical outcome. Exactly one of Payments or
// Refund is set for a successful flow; Error carries declines the same
// way a direct parse would.
type Reply struct {
	ExecutionMode string
	Status        core.AttemptStatus
	Error         *core.ErrorResponse
	Payments      *core.PaymentsResponse
	Refund        *core.RefundResponse

	CapturedAmount *core.MinorUnit
	Currency       core.Currency

	RawConnectorResponse []byte
	HTTPStatus           int

	// RefreshedToken is set when the gateway minted a new access token
	// during the call; the caller re-caches it.
	RefreshedToken *core.AccessToken
}

// Client executes one flow through the gateway.
type Client interface {
	Execute(ctx context.Context, req Request) (Reply, error)
}

const ExecutionModeGateway = "gateway"
