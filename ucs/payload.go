package ucs

import "github.com/goliatone/go-payments/core"

// Secret fields marshal redacted by design, so flow requests carrying a
// payment credential are converted to explicit wire shapes that expose
// exactly the fields the gateway must forward to the processor.

type wireCard struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVC         string `json:"cvc,omitempty"`
	HolderName  string `json:"holder_name,omitempty"`
	Network     string `json:"network,omitempty"`
}

type wirePaymentMethod struct {
	Kind             string    `json:"kind"`
	Card             *wireCard `json:"card,omitempty"`
	WalletKind       string    `json:"wallet_kind,omitempty"`
	WalletToken      string    `json:"wallet_token,omitempty"`
	BankRedirectKind string    `json:"bank_redirect_kind,omitempty"`
	BankCode         string    `json:"bank_code,omitempty"`
	BankCountry      string    `json:"bank_country,omitempty"`
	MandateReference string    `json:"mandate_reference,omitempty"`
}

type wireAddress struct {
	Line1   string `json:"line1,omitempty"`
	Line2   string `json:"line2,omitempty"`
	Line3   string `json:"line3,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

type wireAuthorizeRequest struct {
	PaymentID         string            `json:"payment_id,omitempty"`
	MerchantReference string            `json:"merchant_reference,omitempty"`
	Amount            int64             `json:"amount"`
	Currency          string            `json:"currency"`
	PaymentMethod     wirePaymentMethod `json:"payment_method"`
	CaptureMethod     string            `json:"capture_method,omitempty"`
	BillingAddress    *wireAddress      `json:"billing_address,omitempty"`
	Email             string            `json:"email,omitempty"`
	StatementDesc     string            `json:"statement_descriptor,omitempty"`
	SetupFutureUsage  bool              `json:"setup_future_usage,omitempty"`
	ReturnURL         string            `json:"return_url,omitempty"`
}

type wireSetupMandateRequest struct {
	PaymentID      string            `json:"payment_id,omitempty"`
	PaymentMethod  wirePaymentMethod `json:"payment_method"`
	Currency       string            `json:"currency"`
	BillingAddress *wireAddress      `json:"billing_address,omitempty"`
	Email          string            `json:"email,omitempty"`
}

type wireConfirmRequest struct {
	PaymentID              string            `json:"payment_id,omitempty"`
	ConnectorTransactionID string            `json:"connector_transaction_id,omitempty"`
	Amount                 int64             `json:"amount"`
	Currency               string            `json:"currency"`
	PaymentMethod          wirePaymentMethod `json:"payment_method"`
	CaptureMethod          string            `json:"capture_method,omitempty"`
}

// gatewayPayload swaps credential-bearing canonical requests for their
// exposed wire shapes; everything else serializes as-is.
func gatewayPayload(payload any) any {
	switch v := payload.(type) {
	case core.AuthorizeRequest:
		return authorizePayload(v)
	case *core.AuthorizeRequest:
		return authorizePayload(*v)
	case core.SetupMandateRequest:
		return setupMandatePayload(v)
	case *core.SetupMandateRequest:
		return setupMandatePayload(*v)
	case core.ConfirmRequest:
		return confirmPayload(v)
	case *core.ConfirmRequest:
		return confirmPayload(*v)
	default:
		return payload
	}
}

func authorizePayload(req core.AuthorizeRequest) wireAuthorizeRequest {
	return wireAuthorizeRequest{
		PaymentID:         req.PaymentID,
		MerchantReference: req.MerchantReference,
		Amount:            int64(req.Amount),
		Currency:          string(req.Currency),
		PaymentMethod:     paymentMethodPayload(req.PaymentMethod),
		CaptureMethod:     string(req.CaptureMethod),
		BillingAddress:    addressPayload(req.BillingAddress),
		Email:             req.Email,
		StatementDesc:     req.StatementDesc,
		SetupFutureUsage:  req.SetupFutureUsage,
		ReturnURL:         req.ReturnURL,
	}
}

func setupMandatePayload(req core.SetupMandateRequest) wireSetupMandateRequest {
	return wireSetupMandateRequest{
		PaymentID:      req.PaymentID,
		PaymentMethod:  paymentMethodPayload(req.PaymentMethod),
		Currency:       string(req.Currency),
		BillingAddress: addressPayload(req.BillingAddress),
		Email:          req.Email,
	}
}

func confirmPayload(req core.ConfirmRequest) wireConfirmRequest {
	return wireConfirmRequest{
		PaymentID:              req.PaymentID,
		ConnectorTransactionID: req.ConnectorTransactionID,
		Amount:                 int64(req.Amount),
		Currency:               string(req.Currency),
		PaymentMethod:          paymentMethodPayload(req.PaymentMethod),
		CaptureMethod:          string(req.CaptureMethod),
	}
}

func paymentMethodPayload(method core.PaymentMethodData) wirePaymentMethod {
	out := wirePaymentMethod{Kind: string(method.Kind())}
	switch {
	case method.Card != nil:
		out.Card = &wireCard{
			Number:      method.Card.Number.Expose(),
			ExpiryMonth: method.Card.ExpMonth,
			ExpiryYear:  method.Card.ExpYear,
			CVC:         method.Card.CVC.Expose(),
			HolderName:  method.Card.HolderName,
			Network:     method.Card.Network,
		}
	case method.Wallet != nil:
		out.WalletKind = string(method.Wallet.Kind)
		out.WalletToken = method.Wallet.Token.Expose()
	case method.BankRedirect != nil:
		out.BankRedirectKind = string(method.BankRedirect.Kind)
		out.BankCode = method.BankRedirect.BankCode
		out.BankCountry = method.BankRedirect.Country
	case method.Mandate != nil:
		out.MandateReference = method.Mandate.Reference
	}
	return out
}

func addressPayload(address *core.Address) *wireAddress {
	if address == nil {
		return nil
	}
	return &wireAddress{
		Line1:   address.Line1,
		Line2:   address.Line2,
		Line3:   address.Line3,
		City:    address.City,
		State:   address.State,
		Zip:     address.Zip,
		Country: address.Country,
	}
}
