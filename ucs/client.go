package ucs

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-payments/connectors"
	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/transport"
)

// Header names the gateway reads credentials and lineage from. Secrets
// travel in headers, never in the logged payload body.
const (
	headerAuthKind    = "X-Auth-Kind"
	headerAPIKey      = "X-Auth-Api-Key"
	headerKey1        = "X-Auth-Key1"
	headerAPISecret   = "X-Auth-Api-Secret"
	headerAccessToken = "X-Auth-Access-Token"

	headerMerchantID  = "X-Lineage-Merchant-Id"
	headerAccountID   = "X-Lineage-Connector-Account-Id"
	headerPaymentID   = "X-Lineage-Payment-Id"
	headerAttemptID   = "X-Lineage-Attempt-Id"
	headerRequestID   = "X-Request-Id"
)

type wireReply struct {
	ExecutionMode string                `json:"execution_mode"`
	Status        string                `json:"status"`
	Error         *wireError            `json:"error,omitempty"`
	Payments      *wirePaymentsResponse `json:"payments,omitempty"`
	Refund        *wireRefundResponse   `json:"refund,omitempty"`

	CapturedAmount *int64 `json:"captured_amount,omitempty"`
	Currency       string `json:"currency,omitempty"`

	RawConnectorResponse []byte `json:"raw_connector_response,omitempty"`
	ConnectorHTTPStatus  int    `json:"connector_http_status,omitempty"`

	AccessToken          string `json:"access_token,omitempty"`
	AccessTokenExpiresIn int64  `json:"access_token_expires_in,omitempty"`
}

type wireError struct {
	Code                   string `json:"code,omitempty"`
	Message                string `json:"message,omitempty"`
	Reason                 string `json:"reason,omitempty"`
	ConnectorTransactionID string `json:"connector_transaction_id,omitempty"`
}

type wirePaymentsResponse struct {
	ConnectorTransactionID string `json:"connector_transaction_id,omitempty"`
	ResourceID             string `json:"resource_id,omitempty"`
	ConnectorCustomerID    string `json:"connector_customer_id,omitempty"`
	ConnectorMandateID     string `json:"connector_mandate_id,omitempty"`
	RedirectURL            string `json:"redirect_url,omitempty"`
	NetworkTransactionID   string `json:"network_transaction_id,omitempty"`
}

type wireRefundResponse struct {
	ConnectorRefundID string `json:"connector_refund_id,omitempty"`
	RefundStatus      string `json:"refund_status,omitempty"`
}

// HTTPClient is the JSON-over-HTTP gateway client.
type HTTPClient struct {
	baseURL  string
	executor *transport.Client

	now func() time.Time
}

func NewHTTPClient(baseURL string, executor *transport.Client) *HTTPClient {
	if executor == nil {
		executor = transport.NewClient(nil)
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		executor: executor,
		now:      time.Now,
	}
}

func (c *HTTPClient) Execute(ctx context.Context, req Request) (Reply, error) {
	if req.Connector == "" {
		return Reply{}, core.MissingRequiredFieldError("connector", "ucs")
	}
	if req.Flow == "" {
		return Reply{}, core.MissingRequiredFieldError("flow", "ucs")
	}

	headers := map[string]string{
		headerAuthKind:   string(req.Auth.Kind),
		headerAPIKey:     req.Auth.APIKey.Expose(),
		headerMerchantID: req.Lineage.MerchantID,
		headerAccountID:  req.Lineage.MerchantConnectorAccountID,
		headerPaymentID:  req.Lineage.PaymentID,
		headerAttemptID:  req.Lineage.AttemptID,
		headerRequestID:  req.Lineage.RequestID,
	}
	if !req.Auth.Key1.IsEmpty() {
		headers[headerKey1] = req.Auth.Key1.Expose()
	}
	if !req.Auth.APISecret.IsEmpty() {
		headers[headerAPISecret] = req.Auth.APISecret.Expose()
	}
	if req.AccessToken != nil && !req.AccessToken.Token.IsEmpty() {
		headers[headerAccessToken] = req.AccessToken.Token.Expose()
	}

	path := fmt.Sprintf("/execute/%s/%s", req.Connector, req.Flow)
	wire, err := connectors.NewJSONRequest(ConnectorName, http.MethodPost, path, headers, gatewayPayload(req.Payload))
	if err != nil {
		return Reply{}, err
	}
	res, err := c.executor.Execute(ctx, c.baseURL, wire)
	if err != nil {
		return Reply{}, err
	}
	parsed, err := connectors.DecodeResponse[wireReply](ConnectorName, res)
	if err != nil {
		return Reply{}, err
	}
	return c.toReply(parsed)
}

func (c *HTTPClient) toReply(parsed wireReply) (Reply, error) {
	status := core.AttemptStatus(parsed.Status)
	if status != "" {
		if err := status.Validate(); err != nil {
			return Reply{}, core.ResponseDeserializationError(ConnectorName, err)
		}
	}
	reply := Reply{
		ExecutionMode:        parsed.ExecutionMode,
		Status:               status,
		Currency:             core.Currency(parsed.Currency),
		RawConnectorResponse: parsed.RawConnectorResponse,
		HTTPStatus:           parsed.ConnectorHTTPStatus,
	}
	if parsed.CapturedAmount != nil {
		captured := core.MinorUnit(*parsed.CapturedAmount)
		reply.CapturedAmount = &captured
	}
	if parsed.Error != nil {
		errResp := core.ErrorResponse{
			Code:                   parsed.Error.Code,
			Message:                parsed.Error.Message,
			Reason:                 parsed.Error.Reason,
			HTTPStatus:             parsed.ConnectorHTTPStatus,
			ConnectorTransactionID: parsed.Error.ConnectorTransactionID,
		}.Backfill()
		reply.Error = &errResp
	}
	if parsed.Payments != nil {
		payments := core.PaymentsResponse{
			ConnectorTransactionID: parsed.Payments.ConnectorTransactionID,
			ResourceID:             parsed.Payments.ResourceID,
			ConnectorCustomerID:    parsed.Payments.ConnectorCustomerID,
			RedirectURL:            parsed.Payments.RedirectURL,
			Currency:               reply.Currency,
			AmountCaptured:         reply.CapturedAmount,
		}
		if parsed.Payments.ConnectorMandateID != "" {
			payments.MandateReference = &core.MandateReference{ConnectorMandateID: parsed.Payments.ConnectorMandateID}
		}
		if parsed.Payments.NetworkTransactionID != "" {
			payments.Additional = &core.AdditionalConnectorResponse{NetworkTransactionID: parsed.Payments.NetworkTransactionID}
		}
		reply.Payments = &payments
	}
	if parsed.Refund != nil {
		reply.Refund = &core.RefundResponse{
			ConnectorRefundID: parsed.Refund.ConnectorRefundID,
			RefundStatus:      core.RefundStatus(parsed.Refund.RefundStatus),
		}
	}
	if parsed.AccessToken != "" {
		reply.RefreshedToken = &core.AccessToken{
			Token:     core.NewSecret(parsed.AccessToken),
			ExpiresIn: time.Duration(parsed.AccessTokenExpiresIn) * time.Second,
			CreatedAt: c.now(),
		}
	}
	return reply, nil
}

// ConnectorName is the identifier ucs uses in structured errors; the
// gateway fronts many processors but is one integration to us.
const ConnectorName = "ucs"

var _ Client = (*HTTPClient)(nil)
