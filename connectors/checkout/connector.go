// Package checkout integrates the Checkout-style card processor: JSON
// wire format, minor-unit integer amounts, bearer-key auth, and
// individual multi-capture reconciliation.
package checkout

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-payments/connectors"
	"github.com/goliatone/go-payments/core"
)

const (
	ConnectorID = "checkout"

	// The processor rejects references over 30 characters.
	maxReferenceLength = 30

	defaultBaseURL = "https://api.checkout.example.com"
)

type Config struct {
	BaseURL string
}

type Connector struct {
	baseURL string
}

func New(cfg Config) *Connector {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Connector{baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Connector) ID() string { return ConnectorID }

func (c *Connector) BaseURL() string { return c.baseURL }

func (c *Connector) AmountRepresentation() core.AmountRepresentation {
	return core.AmountMinorUnitInt
}

func (c *Connector) CaptureSyncMethod() core.CaptureSyncMethod {
	return core.CaptureSyncIndividual
}

func authHeaders(auth core.ConnectorAuth) (map[string]string, error) {
	if auth.Kind != core.AuthHeaderKey {
		return nil, core.InvalidAuthTypeError(ConnectorID, string(core.AuthHeaderKey))
	}
	if err := auth.Validate(); err != nil {
		return nil, err
	}
	return map[string]string{
		"Authorization": "Bearer " + auth.APIKey.Expose(),
	}, nil
}

func buildSource(method core.PaymentMethodData) (paymentSource, error) {
	switch method.Kind() {
	case core.PaymentMethodCard:
		card := method.Card
		return paymentSource{
			Type:        "card",
			Number:      card.Number.Expose(),
			ExpiryMonth: card.ExpMonth,
			ExpiryYear:  card.ExpYear,
			CVV:         card.CVC.Expose(),
		}, nil
	case core.PaymentMethodWallet:
		wallet := method.Wallet
		switch wallet.Kind {
		case core.WalletApplePay, core.WalletGooglePay:
			return paymentSource{Type: "token", Token: wallet.Token.Expose()}, nil
		default:
			return paymentSource{}, core.NotImplementedError(method.Label(), ConnectorID)
		}
	case core.PaymentMethodMandate:
		return paymentSource{Type: "id", ID: method.Mandate.Reference}, nil
	default:
		// Bank redirects are not offered on this processor.
		return paymentSource{}, core.NotImplementedError(method.Label(), ConnectorID)
	}
}

func (c *Connector) BuildAuthorizeRequest(data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	headers, err := authHeaders(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	source, err := buildSource(data.Request.PaymentMethod)
	if err != nil {
		return core.WireRequest{}, err
	}

	body := paymentRequest{
		Source:            source,
		Amount:            int64(data.Request.Amount),
		Currency:          string(data.Request.Currency),
		Reference:         connectors.SafeReference(data.Request.MerchantReference, maxReferenceLength),
		Capture:           data.Request.CaptureMethod.IsAutoCapture(),
		SuccessURL:        data.Request.ReturnURL,
		StoreForFutureUse: data.Request.SetupFutureUsage,
	}
	if data.Request.Email != "" {
		body.Customer = &customerRequest{Email: data.Request.Email}
	}
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, "/payments", headers, body)
}

func (c *Connector) ParseAuthorizeResponse(data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[paymentResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	autoCapture := data.Request.CaptureMethod.IsAutoCapture()
	return applyPaymentResponse(data, parsed, res, autoCapture)
}

func (c *Connector) BuildCaptureRequest(data *core.RouterData[core.CaptureRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	headers, err := authHeaders(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	if data.Request.ConnectorTransactionID == "" {
		return core.WireRequest{}, core.MissingRequiredFieldError("connector_transaction_id", ConnectorID)
	}
	body := captureRequest{
		Amount:    int64(data.Request.AmountToCapture),
		Reference: connectors.SafeReference(data.Request.MultipleCaptureID, maxReferenceLength),
	}
	path := fmt.Sprintf("/payments/%s/captures", data.Request.ConnectorTransactionID)
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, path, headers, body)
}

func (c *Connector) ParseCaptureResponse(data *core.RouterData[core.CaptureRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[paymentResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	if parsed.ActionID != "" && parsed.Status == "" {
		// Accepted capture requests come back as a bare action id.
		return data.SetResponse(core.AttemptCaptureInitiated, core.PaymentsResponse{
			ConnectorTransactionID: data.Request.ConnectorTransactionID,
			ResourceID:             parsed.ActionID,
		})
	}
	return applyPaymentResponse(data, parsed, res, true)
}

func (c *Connector) BuildVoidRequest(data *core.RouterData[core.VoidRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	headers, err := authHeaders(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	if data.Request.ConnectorTransactionID == "" {
		return core.WireRequest{}, core.MissingRequiredFieldError("connector_transaction_id", ConnectorID)
	}
	path := fmt.Sprintf("/payments/%s/voids", data.Request.ConnectorTransactionID)
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, path, headers, struct{}{})
}

func (c *Connector) ParseVoidResponse(data *core.RouterData[core.VoidRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[paymentResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	if parsed.ActionID != "" && parsed.Status == "" {
		return data.SetResponse(core.AttemptVoidInitiated, core.PaymentsResponse{
			ConnectorTransactionID: data.Request.ConnectorTransactionID,
			ResourceID:             parsed.ActionID,
		})
	}
	if isErrorEnvelope(parsed) {
		return data.SetError(core.AttemptVoidFailed, errorResponse(parsed, res.StatusCode))
	}
	status, _ := attemptStatus(parsed.Status, false)
	if status.IsPaymentFailure() {
		return data.SetError(core.AttemptVoidFailed, errorResponse(parsed, res.StatusCode))
	}
	return data.SetResponse(status, core.PaymentsResponse{
		ConnectorTransactionID: firstNonEmpty(parsed.ID, data.Request.ConnectorTransactionID),
	})
}

func (c *Connector) BuildRefundRequest(data *core.RouterData[core.RefundRequest, core.RefundResponse]) (core.WireRequest, error) {
	headers, err := authHeaders(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	if data.Request.ConnectorTransactionID == "" {
		return core.WireRequest{}, core.MissingRequiredFieldError("connector_transaction_id", ConnectorID)
	}
	body := refundRequest{
		Amount:    int64(data.Request.Amount),
		Reference: connectors.SafeReference(data.Request.RefundID, maxReferenceLength),
	}
	path := fmt.Sprintf("/payments/%s/refunds", data.Request.ConnectorTransactionID)
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, path, headers, body)
}

func (c *Connector) ParseRefundResponse(data *core.RouterData[core.RefundRequest, core.RefundResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[paymentResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	if isErrorEnvelope(parsed) {
		return data.SetError(core.AttemptFailure, errorResponse(parsed, res.StatusCode))
	}
	response := core.RefundResponse{
		ConnectorRefundID: firstNonEmpty(parsed.ActionID, parsed.ID),
		RefundStatus:      refundStatus(parsed.Status),
	}
	if parsed.ActionID != "" && parsed.Status == "" {
		response.RefundStatus = core.RefundPending
	}
	if response.RefundStatus.IsRefundFailure() {
		declined := errorResponse(parsed, res.StatusCode).Backfill()
		response.Error = &declined
	}
	return data.SetResponse(core.AttemptPending, response)
}

// SupportsSync is the pre-dispatch gate: the processor cannot report
// status for bank-redirect attempts, so the orchestrator skips the call.
func (c *Connector) SupportsSync(req core.SyncRequest) bool {
	if req.ConnectorTransactionID == "" {
		return false
	}
	return req.PaymentMethodKind != core.PaymentMethodBankRedirect
}

func (c *Connector) BuildSyncRequest(data *core.RouterData[core.SyncRequest, core.PaymentsResponse], captureID string) (core.WireRequest, error) {
	headers, err := authHeaders(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	path := fmt.Sprintf("/payments/%s", data.Request.ConnectorTransactionID)
	if captureID != "" {
		path = fmt.Sprintf("/payments/%s/captures/%s", data.Request.ConnectorTransactionID, captureID)
	}
	return core.WireRequest{
		Method:  http.MethodGet,
		Path:    path,
		Headers: headers,
	}, nil
}

func (c *Connector) ParseSyncResponse(data *core.RouterData[core.SyncRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[paymentResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	return applyPaymentResponse(data, parsed, res, data.Request.CaptureMethod.IsAutoCapture())
}

func (c *Connector) BuildSetupMandateRequest(data *core.RouterData[core.SetupMandateRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	headers, err := authHeaders(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	source, err := buildSource(data.Request.PaymentMethod)
	if err != nil {
		return core.WireRequest{}, err
	}
	// Zero-amount verification stores the credential without charging.
	body := paymentRequest{
		Source:            source,
		Amount:            0,
		Currency:          string(data.Request.Currency),
		Capture:           false,
		StoreForFutureUse: true,
	}
	if data.Request.Email != "" {
		body.Customer = &customerRequest{Email: data.Request.Email}
	}
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, "/payments", headers, body)
}

func (c *Connector) ParseSetupMandateResponse(data *core.RouterData[core.SetupMandateRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[paymentResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	return applyPaymentResponse(data, parsed, res, false)
}

// TranslateWebhook converts the processor's push envelope into the
// canonical event shape used by the sync flow.
func (c *Connector) TranslateWebhook(payload []byte) (core.WebhookEvent, error) {
	type webhookEnvelope struct {
		Type string `json:"type"`
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	parsed, err := connectors.DecodeResponse[webhookEnvelope](ConnectorID, core.WireResponse{Body: payload})
	if err != nil {
		return core.WebhookEvent{}, err
	}
	if parsed.Data.ID == "" {
		return core.WebhookEvent{}, core.MissingRequiredFieldError("data.id", ConnectorID)
	}
	status, _ := attemptStatus(parsed.Data.Status, false)
	return core.WebhookEvent{
		EventType:   parsed.Type,
		ReferenceID: parsed.Data.ID,
		Status:      status,
		RawPayload:  payload,
	}, nil
}

// applyPaymentResponse folds one payment envelope into RouterData for
// any payment-shaped flow. A decline is a successful parse that yields
// a failure status plus an ErrorResponse.
func applyPaymentResponse[Req any](data *core.RouterData[Req, core.PaymentsResponse], parsed paymentResponse, res core.WireResponse, autoCapture bool) error {
	data.RawConnectorResponse = res.Body

	if isErrorEnvelope(parsed) {
		return data.SetError(core.AttemptFailure, errorResponse(parsed, res.StatusCode))
	}

	status, known := attemptStatus(parsed.Status, autoCapture)
	if !known && parsed.ID == "" {
		return core.ResponseDeserializationError(ConnectorID, fmt.Errorf("response carries neither a status nor a payment id"))
	}
	if status.IsPaymentFailure() {
		return data.SetError(status, errorResponse(parsed, res.StatusCode))
	}

	response := core.PaymentsResponse{
		ConnectorTransactionID: parsed.ID,
		Additional:             additionalResponse(parsed),
	}
	if parsed.Customer != nil {
		response.ConnectorCustomerID = parsed.Customer.ID
	}
	if parsed.Source != nil && parsed.Source.ID != "" {
		response.MandateReference = &core.MandateReference{
			ConnectorMandateID: parsed.Source.ID,
		}
	}
	if link, ok := parsed.Links["redirect"]; ok {
		response.RedirectURL = link.Href
	}
	return data.SetResponse(status, response)
}

// additionalResponse surfaces diagnostics only when the processor
// reported them; it never fabricates the object.
func additionalResponse(parsed paymentResponse) *core.AdditionalConnectorResponse {
	additional := core.AdditionalConnectorResponse{}
	if parsed.Source != nil {
		additional.AVSCode = parsed.Source.AVSCheck
		additional.CVVCode = parsed.Source.CVVCheck
	}
	if parsed.Processing != nil {
		additional.NetworkTransactionID = parsed.Processing.AcquirerTransactionID
	}
	if additional.IsZero() {
		return nil
	}
	return &additional
}

func isErrorEnvelope(parsed paymentResponse) bool {
	return parsed.ErrorType != "" && parsed.ID == "" && parsed.Status == ""
}

func errorResponse(parsed paymentResponse, httpStatus int) core.ErrorResponse {
	code := parsed.ResponseCode
	if code == "" && len(parsed.ErrorCodes) > 0 {
		code = parsed.ErrorCodes[0]
	}
	message := parsed.ResponseSummary
	if message == "" {
		message = parsed.ErrorType
	}
	return core.ErrorResponse{
		Code:                   code,
		Message:                message,
		Reason:                 strings.Join(parsed.ErrorCodes, ","),
		HTTPStatus:             httpStatus,
		ConnectorTransactionID: parsed.ID,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

var (
	_ core.Connector         = (*Connector)(nil)
	_ core.PaymentAuthorizer = (*Connector)(nil)
	_ core.PaymentCapturer   = (*Connector)(nil)
	_ core.PaymentVoider     = (*Connector)(nil)
	_ core.RefundExecutor    = (*Connector)(nil)
	_ core.PaymentSyncer     = (*Connector)(nil)
	_ core.MandateSetup      = (*Connector)(nil)
	_ core.WebhookTranslator = (*Connector)(nil)
)
