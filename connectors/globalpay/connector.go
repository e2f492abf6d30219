// Package globalpay integrates a Global Payments-style platform:
// nonce-signed access tokens, minor-unit string amounts, and hosted
// bank-redirect methods.
package globalpay

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-payments/amount"
	"github.com/goliatone/go-payments/connectors"
	"github.com/goliatone/go-payments/core"
)

const (
	ConnectorID = "globalpay"

	maxReferenceLength = 50
	addressLineBudget  = 60

	apiVersion     = "2021-03-22"
	defaultBaseURL = "https://apis.globalpay.example.com/ucp"

	channelCardNotPresent = "CNP"
	entryModeEcom         = "ECOM"

	captureModeAuto  = "AUTO"
	captureModeLater = "LATER"
)

type Config struct {
	BaseURL string
}

type Connector struct {
	baseURL string

	// nonce and now are injectable for deterministic token tests.
	nonce func() string
	now   func() time.Time
}

func New(cfg Config) *Connector {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Connector{
		baseURL: strings.TrimRight(baseURL, "/"),
		nonce:   uuid.NewString,
		now:     time.Now,
	}
}

func (c *Connector) ID() string { return ConnectorID }

func (c *Connector) BaseURL() string { return c.baseURL }

func (c *Connector) AmountRepresentation() core.AmountRepresentation {
	return core.AmountMinorUnitString
}

func (c *Connector) CaptureSyncMethod() core.CaptureSyncMethod {
	return core.CaptureSyncBulk
}

// BuildAccessTokenRequest exchanges the signature credential for a
// bearer token: the secret is the hex sha512 of nonce plus app key.
func (c *Connector) BuildAccessTokenRequest(auth core.ConnectorAuth) (core.WireRequest, error) {
	if auth.Kind != core.AuthSignatureKey {
		return core.WireRequest{}, core.InvalidAuthTypeError(ConnectorID, string(core.AuthSignatureKey))
	}
	if err := auth.Validate(); err != nil {
		return core.WireRequest{}, err
	}
	nonce := c.nonce()
	digest := sha512.Sum512([]byte(nonce + auth.APISecret.Expose()))
	body := accessTokenRequest{
		AppID:     auth.APIKey.Expose(),
		Nonce:     nonce,
		Secret:    hex.EncodeToString(digest[:]),
		GrantType: "client_credentials",
	}
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, "/accesstoken", versionHeaders(nil), body)
}

func (c *Connector) ParseAccessTokenResponse(res core.WireResponse) (core.AccessToken, error) {
	parsed, err := connectors.DecodeResponse[accessTokenResponse](ConnectorID, res)
	if err != nil {
		return core.AccessToken{}, err
	}
	if parsed.Token == "" {
		return core.AccessToken{}, core.ResponseDeserializationError(ConnectorID,
			fmt.Errorf("token exchange failed with code %q: %s", parsed.ErrorCode, parsed.Detail))
	}
	return core.AccessToken{
		Token:     core.NewSecret(parsed.Token),
		ExpiresIn: time.Duration(parsed.SecondsToExpire) * time.Second,
		CreatedAt: c.now(),
	}, nil
}

func bearerHeaders(token *core.AccessToken) (map[string]string, error) {
	if token == nil || token.Token.IsEmpty() {
		return nil, core.MissingRequiredFieldError("access_token", ConnectorID)
	}
	return versionHeaders(map[string]string{
		"Authorization": "Bearer " + token.Token.Expose(),
	}), nil
}

func versionHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		headers = map[string]string{}
	}
	headers["X-GP-Version"] = apiVersion
	return headers
}

func minorString(value core.MinorUnit, currency core.Currency) (string, error) {
	converted, err := amount.Convert(value, currency, core.AmountMinorUnitString)
	if err != nil {
		return "", err
	}
	return converted.MinorString, nil
}

func buildPaymentMethod(method core.PaymentMethodData, returnURL string) (paymentMethodRequest, error) {
	out := paymentMethodRequest{EntryMode: entryModeEcom}
	switch method.Kind() {
	case core.PaymentMethodCard:
		card := method.Card
		out.Card = &cardRequest{
			Number:      card.Number.Expose(),
			ExpiryMonth: card.ExpMonth,
			ExpiryYear:  card.ExpYear,
			CVV:         card.CVC.Expose(),
		}
		return out, nil
	case core.PaymentMethodBankRedirect:
		redirect := method.BankRedirect
		out.APM = &apmRequest{
			Provider:  string(redirect.Kind),
			ReturnURL: firstNonEmpty(redirect.ReturnURL, returnURL),
			Country:   redirect.Country,
		}
		return out, nil
	case core.PaymentMethodWallet:
		if method.Wallet.Kind == core.WalletPayPal {
			out.APM = &apmRequest{Provider: "paypal", ReturnURL: returnURL}
			return out, nil
		}
		return paymentMethodRequest{}, core.NotImplementedError(method.Label(), ConnectorID)
	case core.PaymentMethodMandate:
		out.ID = method.Mandate.Reference
		return out, nil
	default:
		return paymentMethodRequest{}, core.NotImplementedError(method.Label(), ConnectorID)
	}
}

func buildBilling(address *core.Address) *billingAddress {
	if address == nil {
		return nil
	}
	return &billingAddress{
		StreetAddress: connectors.CombineAddressLines(*address, addressLineBudget),
		City:          address.City,
		PostalCode:    address.Zip,
		Country:       address.Country,
	}
}

func (c *Connector) BuildAuthorizeRequest(data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	headers, err := bearerHeaders(data.AccessToken)
	if err != nil {
		return core.WireRequest{}, err
	}
	method, err := buildPaymentMethod(data.Request.PaymentMethod, data.Request.ReturnURL)
	if err != nil {
		return core.WireRequest{}, err
	}
	minor, err := minorString(data.Request.Amount, data.Request.Currency)
	if err != nil {
		return core.WireRequest{}, err
	}

	captureMode := captureModeLater
	if data.Request.CaptureMethod.IsAutoCapture() {
		captureMode = captureModeAuto
	}
	body := paymentRequest{
		Channel:       channelCardNotPresent,
		CaptureMode:   captureMode,
		Amount:        minor,
		Currency:      string(data.Request.Currency),
		Reference:     connectors.SafeReference(data.Request.MerchantReference, maxReferenceLength),
		PaymentMethod: method,
		Billing:       buildBilling(data.Request.BillingAddress),
	}
	if data.Request.BillingAddress != nil {
		body.Country = data.Request.BillingAddress.Country
	}
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, "/transactions", headers, body)
}

func (c *Connector) ParseAuthorizeResponse(data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[transactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	return applyTransactionResponse(data, parsed, res, data.Request.CaptureMethod.IsAutoCapture())
}

func (c *Connector) BuildCaptureRequest(data *core.RouterData[core.CaptureRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	headers, err := bearerHeaders(data.AccessToken)
	if err != nil {
		return core.WireRequest{}, err
	}
	if data.Request.ConnectorTransactionID == "" {
		return core.WireRequest{}, core.MissingRequiredFieldError("connector_transaction_id", ConnectorID)
	}
	minor, err := minorString(data.Request.AmountToCapture, data.Request.Currency)
	if err != nil {
		return core.WireRequest{}, err
	}
	path := fmt.Sprintf("/transactions/%s/capture", data.Request.ConnectorTransactionID)
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, path, headers, amountRequest{Amount: minor})
}

func (c *Connector) ParseCaptureResponse(data *core.RouterData[core.CaptureRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[transactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	return applyTransactionResponse(data, parsed, res, true)
}

func (c *Connector) BuildVoidRequest(data *core.RouterData[core.VoidRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	headers, err := bearerHeaders(data.AccessToken)
	if err != nil {
		return core.WireRequest{}, err
	}
	if data.Request.ConnectorTransactionID == "" {
		return core.WireRequest{}, core.MissingRequiredFieldError("connector_transaction_id", ConnectorID)
	}
	path := fmt.Sprintf("/transactions/%s/reversal", data.Request.ConnectorTransactionID)
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, path, headers, struct{}{})
}

func (c *Connector) ParseVoidResponse(data *core.RouterData[core.VoidRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[transactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	data.RawConnectorResponse = res.Body
	if parsed.ErrorCode != "" {
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
	headers, err := bearerHeaders(data.AccessToken)
	if err != nil {
		return core.WireRequest{}, err
	}
	if data.Request.ConnectorTransactionID == "" {
		return core.WireRequest{}, core.MissingRequiredFieldError("connector_transaction_id", ConnectorID)
	}
	minor, err := minorString(data.Request.Amount, data.Request.Currency)
	if err != nil {
		return core.WireRequest{}, err
	}
	path := fmt.Sprintf("/transactions/%s/refund", data.Request.ConnectorTransactionID)
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, path, headers, amountRequest{Amount: minor})
}

func (c *Connector) ParseRefundResponse(data *core.RouterData[core.RefundRequest, core.RefundResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[transactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	data.RawConnectorResponse = res.Body
	if parsed.ErrorCode != "" {
		return data.SetError(core.AttemptFailure, errorResponse(parsed, res.StatusCode))
	}
	response := core.RefundResponse{
		ConnectorRefundID: parsed.ID,
		RefundStatus:      refundStatus(parsed.Status),
	}
	attachRefundDecline(&response, parsed, res.StatusCode)
	return data.SetResponse(core.AttemptPending, response)
}

func (c *Connector) SupportsSync(req core.SyncRequest) bool {
	return req.ConnectorTransactionID != ""
}

func (c *Connector) BuildSyncRequest(data *core.RouterData[core.SyncRequest, core.PaymentsResponse], captureID string) (core.WireRequest, error) {
	headers, err := bearerHeaders(data.AccessToken)
	if err != nil {
		return core.WireRequest{}, err
	}
	return core.WireRequest{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/transactions/%s", data.Request.ConnectorTransactionID),
		Headers: headers,
	}, nil
}

// ParseSyncResponse abandons the poll wholesale when the platform
// reports a transient busy code: RouterData is left untouched so the
// prior attempt state merges back unchanged. Refund sync deliberately
// has no such escape, the platform never sheds load on that endpoint.
func (c *Connector) ParseSyncResponse(data *core.RouterData[core.SyncRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[transactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	if serverBusyCodes[parsed.ErrorCode] {
		return nil
	}
	return applyTransactionResponse(data, parsed, res, data.Request.CaptureMethod.IsAutoCapture())
}

func (c *Connector) BuildRefundSyncRequest(data *core.RouterData[core.RefundSyncRequest, core.RefundResponse]) (core.WireRequest, error) {
	headers, err := bearerHeaders(data.AccessToken)
	if err != nil {
		return core.WireRequest{}, err
	}
	if data.Request.ConnectorRefundID == "" {
		return core.WireRequest{}, core.MissingRequiredFieldError("connector_refund_id", ConnectorID)
	}
	return core.WireRequest{
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/transactions/%s", data.Request.ConnectorRefundID),
		Headers: headers,
	}, nil
}

func (c *Connector) ParseRefundSyncResponse(data *core.RouterData[core.RefundSyncRequest, core.RefundResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[transactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	data.RawConnectorResponse = res.Body
	if parsed.ErrorCode != "" {
		return data.SetError(core.AttemptFailure, errorResponse(parsed, res.StatusCode))
	}
	response := core.RefundResponse{
		ConnectorRefundID: firstNonEmpty(parsed.ID, data.Request.ConnectorRefundID),
		RefundStatus:      refundStatus(parsed.Status),
	}
	attachRefundDecline(&response, parsed, res.StatusCode)
	return data.SetResponse(core.AttemptPending, response)
}

// attachRefundDecline backfills decline details when the processor
// reports the failure as a native status instead of an error envelope.
func attachRefundDecline(response *core.RefundResponse, parsed transactionResponse, httpStatus int) {
	if !response.RefundStatus.IsRefundFailure() {
		return
	}
	declined := errorResponse(parsed, httpStatus).Backfill()
	response.Error = &declined
}

func applyTransactionResponse[Req any](data *core.RouterData[Req, core.PaymentsResponse], parsed transactionResponse, res core.WireResponse, autoCapture bool) error {
	data.RawConnectorResponse = res.Body

	if parsed.ErrorCode != "" {
		return data.SetError(core.AttemptFailure, errorResponse(parsed, res.StatusCode))
	}
	status, known := attemptStatus(parsed.Status, autoCapture)
	if !known && parsed.ID == "" {
		return core.ResponseDeserializationError(ConnectorID, fmt.Errorf("response carries neither a status nor a transaction id"))
	}
	if status.IsPaymentFailure() {
		return data.SetError(status, errorResponse(parsed, res.StatusCode))
	}

	response := core.PaymentsResponse{
		ConnectorTransactionID: parsed.ID,
		Currency:               core.Currency(parsed.Currency),
	}
	if parsed.Amount != "" && (parsed.Status == statusCaptured || parsed.Status == statusFunded) {
		captured, err := amount.ConvertBack(amount.Converted{
			Representation: core.AmountMinorUnitString,
			Currency:       core.Currency(firstNonEmpty(parsed.Currency, "USD")),
			MinorString:    parsed.Amount,
		})
		if err != nil {
			return err
		}
		response.AmountCaptured = &captured
	}
	if pm := parsed.PaymentMethod; pm != nil {
		response.RedirectURL = pm.RedirectURL
		if pm.ID != "" {
			response.MandateReference = &core.MandateReference{ConnectorMandateID: pm.ID}
		}
		if pm.Card != nil {
			additional := core.AdditionalConnectorResponse{
				NetworkTransactionID: pm.Card.BrandReference,
				AVSCode:              pm.Card.AVSPostalCode,
				CVVCode:              pm.Card.CVVResult,
			}
			if !additional.IsZero() {
				response.Additional = &additional
			}
		}
	}
	return data.SetResponse(status, response)
}

func errorResponse(parsed transactionResponse, httpStatus int) core.ErrorResponse {
	return core.ErrorResponse{
		Code:                   firstNonEmpty(parsed.DetailedCode, parsed.ErrorCode),
		Message:                parsed.Detail,
		Reason:                 parsed.Detail,
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
	_ core.Connector                = (*Connector)(nil)
	_ core.PaymentAuthorizer        = (*Connector)(nil)
	_ core.PaymentCapturer          = (*Connector)(nil)
	_ core.PaymentVoider            = (*Connector)(nil)
	_ core.RefundExecutor           = (*Connector)(nil)
	_ core.PaymentSyncer            = (*Connector)(nil)
	_ core.RefundSyncer             = (*Connector)(nil)
	_ core.AccessTokenAuthenticator = (*Connector)(nil)
)
