// Package authorizenet integrates an Authorize.Net-style gateway:
// body-key credentials, major-unit float amounts, numeric submit codes,
// and customer-profile mandates.
package authorizenet

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-payments/amount"
	"github.com/goliatone/go-payments/connectors"
	"github.com/goliatone/go-payments/core"
)

const (
	ConnectorID = "authorizenet"

	// refId echoes back on the response; the gateway caps it at 20.
	maxReferenceLength = 20

	requestPath    = "/xml/v1/request.api"
	defaultBaseURL = "https://api.authorize.example.com"

	transactionAuthCapture      = "authCaptureTransaction"
	transactionAuthOnly         = "authOnlyTransaction"
	transactionPriorAuthCapture = "priorAuthCaptureTransaction"
	transactionVoid             = "voidTransaction"
	transactionRefund           = "refundTransaction"

	// mandateSeparator joins the customer profile id and the payment
	// profile id into the single stored mandate reference.
	mandateSeparator = "/"
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
	return core.AmountMajorUnitFloat
}

func (c *Connector) CaptureSyncMethod() core.CaptureSyncMethod {
	return core.CaptureSyncBulk
}

func bodyAuth(auth core.ConnectorAuth) (merchantAuthentication, error) {
	if auth.Kind != core.AuthBodyKey {
		return merchantAuthentication{}, core.InvalidAuthTypeError(ConnectorID, string(core.AuthBodyKey))
	}
	if err := auth.Validate(); err != nil {
		return merchantAuthentication{}, err
	}
	return merchantAuthentication{
		Name:           auth.APIKey.Expose(),
		TransactionKey: auth.Key1.Expose(),
	}, nil
}

func majorAmount(value core.MinorUnit, currency core.Currency) (float64, error) {
	converted, err := amount.Convert(value, currency, core.AmountMajorUnitFloat)
	if err != nil {
		return 0, err
	}
	return converted.MajorFloat, nil
}

// buildPayment maps the canonical method union onto the gateway's
// payment object, or a profile reference for stored mandates.
func buildPayment(method core.PaymentMethodData) (*paymentDetails, *profileRequest, error) {
	switch method.Kind() {
	case core.PaymentMethodCard:
		card := method.Card
		return &paymentDetails{CreditCard: &creditCard{
			CardNumber:     card.Number.Expose(),
			ExpirationDate: fmt.Sprintf("%s-%s", card.ExpYear, card.ExpMonth),
			CardCode:       card.CVC.Expose(),
		}}, nil, nil
	case core.PaymentMethodWallet:
		wallet := method.Wallet
		switch wallet.Kind {
		case core.WalletApplePay:
			return &paymentDetails{OpaqueData: &opaqueData{
				DataDescriptor: "COMMON.APPLE.INAPP.PAYMENT",
				DataValue:      wallet.Token.Expose(),
			}}, nil, nil
		case core.WalletGooglePay:
			return &paymentDetails{OpaqueData: &opaqueData{
				DataDescriptor: "COMMON.GOOGLE.INAPP.PAYMENT",
				DataValue:      wallet.Token.Expose(),
			}}, nil, nil
		default:
			return nil, nil, core.NotImplementedError(method.Label(), ConnectorID)
		}
	case core.PaymentMethodMandate:
		profile, err := profileFromMandate(method.Mandate.Reference)
		if err != nil {
			return nil, nil, err
		}
		return nil, profile, nil
	default:
		return nil, nil, core.NotImplementedError(method.Label(), ConnectorID)
	}
}

func profileFromMandate(reference string) (*profileRequest, error) {
	customerID, paymentID, found := strings.Cut(reference, mandateSeparator)
	if !found || customerID == "" || paymentID == "" {
		return nil, core.MissingRequiredFieldError("mandate_reference", ConnectorID)
	}
	return &profileRequest{
		CustomerProfileID: customerID,
		PaymentProfile:    &paymentProfileRef{PaymentProfileID: paymentID},
	}, nil
}

func buildBillTo(address *core.Address) *billTo {
	if address == nil {
		return nil
	}
	return &billTo{
		Address: connectors.CombineAddressLines(*address, 60),
		City:    address.City,
		State:   address.State,
		Zip:     address.Zip,
		Country: address.Country,
	}
}

func (c *Connector) newRequest(auth merchantAuthentication, refID string, txn transactionRequest) (core.WireRequest, error) {
	body := createTransactionEnvelope{CreateTransactionRequest: createTransactionBody{
		MerchantAuthentication: auth,
		RefID:                  connectors.SafeReference(refID, maxReferenceLength),
		TransactionRequest:     txn,
	}}
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, requestPath, nil, body)
}

func (c *Connector) BuildAuthorizeRequest(data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	auth, err := bodyAuth(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	payment, profile, err := buildPayment(data.Request.PaymentMethod)
	if err != nil {
		return core.WireRequest{}, err
	}
	major, err := majorAmount(data.Request.Amount, data.Request.Currency)
	if err != nil {
		return core.WireRequest{}, err
	}

	transactionType := transactionAuthOnly
	if data.Request.CaptureMethod.IsAutoCapture() {
		transactionType = transactionAuthCapture
	}
	txn := transactionRequest{
		TransactionType: transactionType,
		Amount:          major,
		CurrencyCode:    string(data.Request.Currency),
		Payment:         payment,
		Profile:         profile,
		BillTo:          buildBillTo(data.Request.BillingAddress),
	}
	if profile == nil && data.Request.SetupFutureUsage {
		txn.Profile = &profileRequest{CreateProfile: true}
	}
	return c.newRequest(auth, data.Request.MerchantReference, txn)
}

func (c *Connector) ParseAuthorizeResponse(data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[createTransactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	return applyTransactionResponse(data, parsed, res, data.Request.CaptureMethod.IsAutoCapture())
}

func (c *Connector) BuildCaptureRequest(data *core.RouterData[core.CaptureRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	auth, err := bodyAuth(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	if data.Request.ConnectorTransactionID == "" {
		return core.WireRequest{}, core.MissingRequiredFieldError("connector_transaction_id", ConnectorID)
	}
	major, err := majorAmount(data.Request.AmountToCapture, data.Request.Currency)
	if err != nil {
		return core.WireRequest{}, err
	}
	return c.newRequest(auth, data.Request.PaymentID, transactionRequest{
		TransactionType: transactionPriorAuthCapture,
		Amount:          major,
		RefTransID:      data.Request.ConnectorTransactionID,
	})
}

func (c *Connector) ParseCaptureResponse(data *core.RouterData[core.CaptureRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[createTransactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	return applyTransactionResponse(data, parsed, res, true)
}

func (c *Connector) BuildVoidRequest(data *core.RouterData[core.VoidRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	auth, err := bodyAuth(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	if data.Request.ConnectorTransactionID == "" {
		return core.WireRequest{}, core.MissingRequiredFieldError("connector_transaction_id", ConnectorID)
	}
	return c.newRequest(auth, data.Request.PaymentID, transactionRequest{
		TransactionType: transactionVoid,
		RefTransID:      data.Request.ConnectorTransactionID,
	})
}

func (c *Connector) ParseVoidResponse(data *core.RouterData[core.VoidRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[createTransactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	data.RawConnectorResponse = res.Body
	txn := parsed.TransactionResponse
	if txn == nil || txn.ResponseCode != responseApproved {
		return data.SetError(core.AttemptVoidFailed, dominantError(parsed, res.StatusCode))
	}
	return data.SetResponse(core.AttemptVoided, core.PaymentsResponse{
		ConnectorTransactionID: firstNonEmpty(txn.TransID, data.Request.ConnectorTransactionID),
	})
}

func (c *Connector) BuildRefundRequest(data *core.RouterData[core.RefundRequest, core.RefundResponse]) (core.WireRequest, error) {
	auth, err := bodyAuth(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	if data.Request.ConnectorTransactionID == "" {
		return core.WireRequest{}, core.MissingRequiredFieldError("connector_transaction_id", ConnectorID)
	}
	major, err := majorAmount(data.Request.Amount, data.Request.Currency)
	if err != nil {
		return core.WireRequest{}, err
	}
	return c.newRequest(auth, data.Request.RefundID, transactionRequest{
		TransactionType: transactionRefund,
		Amount:          major,
		CurrencyCode:    string(data.Request.Currency),
		RefTransID:      data.Request.ConnectorTransactionID,
	})
}

func (c *Connector) ParseRefundResponse(data *core.RouterData[core.RefundRequest, core.RefundResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[createTransactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	data.RawConnectorResponse = res.Body
	txn := parsed.TransactionResponse
	if txn == nil {
		return data.SetError(core.AttemptFailure, dominantError(parsed, res.StatusCode))
	}
	response := core.RefundResponse{
		ConnectorRefundID: txn.TransID,
		RefundStatus:      refundStatus(txn.ResponseCode),
	}
	if response.RefundStatus.IsRefundFailure() {
		declined := dominantError(parsed, res.StatusCode).Backfill()
		response.Error = &declined
	}
	return data.SetResponse(core.AttemptPending, response)
}

// SupportsSync only requires a transaction id; the details endpoint
// covers every method the gateway accepts.
func (c *Connector) SupportsSync(req core.SyncRequest) bool {
	return req.ConnectorTransactionID != ""
}

func (c *Connector) BuildSyncRequest(data *core.RouterData[core.SyncRequest, core.PaymentsResponse], captureID string) (core.WireRequest, error) {
	auth, err := bodyAuth(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	body := transactionDetailsEnvelope{GetTransactionDetailsRequest: transactionDetailsBody{
		MerchantAuthentication: auth,
		TransID:                data.Request.ConnectorTransactionID,
	}}
	return connectors.NewJSONRequest(ConnectorID, http.MethodPost, requestPath, nil, body)
}

func (c *Connector) ParseSyncResponse(data *core.RouterData[core.SyncRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[transactionDetailsResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	data.RawConnectorResponse = res.Body
	if parsed.Transaction == nil {
		return data.SetError(core.AttemptFailure, messagesError(parsed.Messages, res.StatusCode, ""))
	}
	status, _ := syncStatus(parsed.Transaction.TransactionStatus)
	if status.IsPaymentFailure() {
		return data.SetError(status, messagesError(parsed.Messages, res.StatusCode, parsed.Transaction.TransID))
	}
	response := core.PaymentsResponse{
		ConnectorTransactionID: parsed.Transaction.TransID,
		Currency:               data.Request.Currency,
	}
	if parsed.Transaction.SettleAmount > 0 {
		captured, err := amount.ConvertBack(amount.Converted{
			Representation: core.AmountMajorUnitFloat,
			Currency:       data.Request.Currency,
			MajorFloat:     parsed.Transaction.SettleAmount,
		})
		if err != nil {
			return err
		}
		response.AmountCaptured = &captured
	}
	return data.SetResponse(status, response)
}

func (c *Connector) BuildConfirmRequest(data *core.RouterData[core.ConfirmRequest, core.PaymentsResponse]) (core.WireRequest, error) {
	auth, err := bodyAuth(data.Auth)
	if err != nil {
		return core.WireRequest{}, err
	}
	payment, profile, err := buildPayment(data.Request.PaymentMethod)
	if err != nil {
		return core.WireRequest{}, err
	}
	major, err := majorAmount(data.Request.Amount, data.Request.Currency)
	if err != nil {
		return core.WireRequest{}, err
	}
	transactionType := transactionAuthOnly
	if data.Request.CaptureMethod.IsAutoCapture() {
		transactionType = transactionAuthCapture
	}
	return c.newRequest(auth, data.Request.PaymentID, transactionRequest{
		TransactionType: transactionType,
		Amount:          major,
		CurrencyCode:    string(data.Request.Currency),
		Payment:         payment,
		Profile:         profile,
	})
}

func (c *Connector) ParseConfirmResponse(data *core.RouterData[core.ConfirmRequest, core.PaymentsResponse], res core.WireResponse) error {
	parsed, err := connectors.DecodeResponse[createTransactionResponse](ConnectorID, res)
	if err != nil {
		return err
	}
	return applyTransactionResponse(data, parsed, res, data.Request.CaptureMethod.IsAutoCapture())
}

// applyTransactionResponse folds a submit reply into RouterData. The
// top-level profileResponse takes precedence over the profile nested in
// transactionResponse when both report a stored credential.
func applyTransactionResponse[Req any](data *core.RouterData[Req, core.PaymentsResponse], parsed createTransactionResponse, res core.WireResponse, autoCapture bool) error {
	data.RawConnectorResponse = res.Body

	txn := parsed.TransactionResponse
	if txn == nil {
		return data.SetError(core.AttemptFailure, dominantError(parsed, res.StatusCode))
	}

	status, known := attemptStatus(txn.ResponseCode, autoCapture)
	if !known {
		return core.ResponseDeserializationError(ConnectorID, fmt.Errorf("unknown response code %q", txn.ResponseCode))
	}
	if status.IsPaymentFailure() {
		return data.SetError(status, dominantError(parsed, res.StatusCode))
	}

	response := core.PaymentsResponse{
		ConnectorTransactionID: txn.TransID,
		MandateReference:       mandateFromResponse(parsed),
		Additional:             additionalResponse(txn),
	}
	return data.SetResponse(status, response)
}

func mandateFromResponse(parsed createTransactionResponse) *core.MandateReference {
	if pr := parsed.ProfileResponse; pr != nil && pr.CustomerProfileID != "" {
		reference := core.MandateReference{ConnectorMandateID: pr.CustomerProfileID}
		if len(pr.CustomerPaymentProfileIDList) > 0 {
			reference.ConnectorMandateID = pr.CustomerProfileID + mandateSeparator + pr.CustomerPaymentProfileIDList[0]
			reference.PaymentMethodID = pr.CustomerPaymentProfileIDList[0]
		}
		return &reference
	}
	if txn := parsed.TransactionResponse; txn != nil && txn.Profile != nil && txn.Profile.CustomerProfileID != "" {
		return &core.MandateReference{
			ConnectorMandateID: txn.Profile.CustomerProfileID + mandateSeparator + txn.Profile.CustomerPaymentProfileID,
			PaymentMethodID:    txn.Profile.CustomerPaymentProfileID,
		}
	}
	return nil
}

func additionalResponse(txn *transactionResponse) *core.AdditionalConnectorResponse {
	additional := core.AdditionalConnectorResponse{
		NetworkTransactionID: txn.NetworkTransID,
		AVSCode:              txn.AVSResultCode,
		CVVCode:              txn.CVVResultCode,
	}
	if additional.IsZero() {
		return nil
	}
	return &additional
}

// dominantError collects every error the gateway attached and surfaces
// the least severe one; simultaneous codes are usually one real problem
// plus its knock-on effects.
func dominantError(parsed createTransactionResponse, httpStatus int) core.ErrorResponse {
	var entries []core.ErrorResponse
	transID := ""
	if txn := parsed.TransactionResponse; txn != nil {
		transID = txn.TransID
		for _, e := range txn.Errors {
			entries = append(entries, core.ErrorResponse{
				Code:                   e.ErrorCode,
				Message:                e.ErrorText,
				HTTPStatus:             httpStatus,
				ConnectorTransactionID: transID,
			})
		}
	}
	if len(entries) == 0 {
		return messagesError(parsed.Messages, httpStatus, transID)
	}
	picked, _ := core.PickDominantError(entries, errorSeverity)
	return picked
}

func messagesError(messages apiMessages, httpStatus int, transID string) core.ErrorResponse {
	out := core.ErrorResponse{
		HTTPStatus:             httpStatus,
		ConnectorTransactionID: transID,
	}
	if len(messages.Message) > 0 {
		out.Code = messages.Message[0].Code
		out.Message = messages.Message[0].Text
	}
	return out
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
	_ core.PaymentConfirmer  = (*Connector)(nil)
)
