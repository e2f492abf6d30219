package globalpay

import "github.com/goliatone/go-payments/core"

type accessTokenRequest struct {
	AppID     string `json:"app_id"`
	Nonce     string `json:"nonce"`
	Secret    string `json:"secret"`
	GrantType string `json:"grant_type"`
}

type accessTokenResponse struct {
	Token           string `json:"token"`
	Type            string `json:"type,omitempty"`
	SecondsToExpire int    `json:"seconds_to_expire,omitempty"`
	ErrorCode       string `json:"error_code,omitempty"`
	Detail          string `json:"detailed_error_description,omitempty"`
}

type cardRequest struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv,omitempty"`
}

type apmRequest struct {
	Provider  string `json:"provider"`
	ReturnURL string `json:"return_url,omitempty"`
	Country   string `json:"country,omitempty"`
}

type paymentMethodRequest struct {
	EntryMode string       `json:"entry_mode"`
	ID        string       `json:"id,omitempty"`
	Card      *cardRequest `json:"card,omitempty"`
	APM       *apmRequest  `json:"apm,omitempty"`
}

type billingAddress struct {
	StreetAddress string `json:"street_address,omitempty"`
	City          string `json:"city,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`
}

type paymentRequest struct {
	AccountName   string               `json:"account_name,omitempty"`
	Channel       string               `json:"channel"`
	CaptureMode   string               `json:"capture_mode"`
	Amount        string               `json:"amount"`
	Currency      string               `json:"currency"`
	Reference     string               `json:"reference,omitempty"`
	Country       string               `json:"country,omitempty"`
	PaymentMethod paymentMethodRequest `json:"payment_method"`
	Billing       *billingAddress      `json:"billing_address,omitempty"`
}

type amountRequest struct {
	Amount string `json:"amount,omitempty"`
}

type cardResult struct {
	Brand          string `json:"brand,omitempty"`
	AVSPostalCode  string `json:"avs_postal_code_result,omitempty"`
	CVVResult      string `json:"cvv_result,omitempty"`
	BrandReference string `json:"brand_reference,omitempty"`
}

type paymentMethodResult struct {
	ID          string      `json:"id,omitempty"`
	Result      string      `json:"result,omitempty"`
	Message     string      `json:"message,omitempty"`
	Card        *cardResult `json:"card,omitempty"`
	RedirectURL string      `json:"redirect_url,omitempty"`
}

// transactionResponse is both the success and the error envelope; error
// replies carry error_code and the detailed fields instead of a status.
type transactionResponse struct {
	ID            string               `json:"id,omitempty"`
	Status        string               `json:"status,omitempty"`
	Amount        string               `json:"amount,omitempty"`
	Currency      string               `json:"currency,omitempty"`
	Reference     string               `json:"reference,omitempty"`
	PaymentMethod *paymentMethodResult `json:"payment_method,omitempty"`

	ErrorCode    string `json:"error_code,omitempty"`
	DetailedCode string `json:"detailed_error_code,omitempty"`
	Detail       string `json:"detailed_error_description,omitempty"`
}

const (
	statusInitiated     = "INITIATED"
	statusPreauthorized = "PREAUTHORIZED"
	statusCaptured      = "CAPTURED"
	statusDeclined      = "DECLINED"
	statusPending       = "PENDING"
	statusReversed      = "REVERSED"
	statusFunded        = "FUNDED"
)

func attemptStatus(native string, autoCapture bool) (core.AttemptStatus, bool) {
	switch native {
	case statusPreauthorized:
		if autoCapture {
			return core.AttemptCharged, true
		}
		return core.AttemptAuthorized, true
	case statusCaptured, statusFunded:
		return core.AttemptCharged, true
	case statusDeclined:
		return core.AttemptAuthorizationFailed, true
	case statusInitiated:
		return core.AttemptAuthenticationPending, true
	case statusPending:
		return core.AttemptPending, true
	case statusReversed:
		return core.AttemptVoided, true
	default:
		return core.AttemptUnresolved, false
	}
}

func refundStatus(native string) core.RefundStatus {
	switch native {
	case statusCaptured, statusFunded:
		return core.RefundSuccess
	case statusDeclined:
		return core.RefundFailure
	default:
		return core.RefundPending
	}
}

// serverBusyCodes are the transient platform codes on which a payment
// status poll is abandoned wholesale: the reply carries no transaction
// state, so the prior attempt state must survive untouched.
var serverBusyCodes = map[string]bool{
	"50002": true,
	"50004": true,
}
