package checkout

import "github.com/goliatone/go-payments/core"

// Wire shapes follow the processor's JSON field naming exactly.

type paymentSource struct {
	Type        string `json:"type"`
	Number      string `json:"number,omitempty"`
	ExpiryMonth string `json:"expiry_month,omitempty"`
	ExpiryYear  string `json:"expiry_year,omitempty"`
	CVV         string `json:"cvv,omitempty"`
	Token       string `json:"token,omitempty"`
	ID          string `json:"id,omitempty"`
}

type customerRequest struct {
	Email string `json:"email,omitempty"`
}

type paymentRequest struct {
	Source            paymentSource    `json:"source"`
	Amount            int64            `json:"amount"`
	Currency          string           `json:"currency"`
	Reference         string           `json:"reference,omitempty"`
	Capture           bool             `json:"capture"`
	Customer          *customerRequest `json:"customer,omitempty"`
	SuccessURL        string           `json:"success_url,omitempty"`
	FailureURL        string           `json:"failure_url,omitempty"`
	StoreForFutureUse bool             `json:"store_for_future_use,omitempty"`
}

type captureRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

type refundRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

type sourceResponse struct {
	ID       string `json:"id,omitempty"`
	AVSCheck string `json:"avs_check,omitempty"`
	CVVCheck string `json:"cvv_check,omitempty"`
}

type customerResponse struct {
	ID string `json:"id,omitempty"`
}

type processingResponse struct {
	AcquirerTransactionID string `json:"acquirer_transaction_id,omitempty"`
	SchemeID              string `json:"retrieval_reference_number,omitempty"`
}

type linkObject struct {
	Href string `json:"href,omitempty"`
}

// paymentResponse doubles as the success and the error envelope: the
// processor omits a type tag, so which mandatory fields are present is
// the discriminator. A decline still carries id+status; a structural
// error carries only error_type/error_codes. The per-capture sync reply
// is the same shape minus the payment id, so it decodes here too.
type paymentResponse struct {
	ID              string                `json:"id,omitempty"`
	ActionID        string                `json:"action_id,omitempty"`
	Status          string                `json:"status,omitempty"`
	Approved        *bool                 `json:"approved,omitempty"`
	ResponseCode    string                `json:"response_code,omitempty"`
	ResponseSummary string                `json:"response_summary,omitempty"`
	Source          *sourceResponse       `json:"source,omitempty"`
	Customer        *customerResponse     `json:"customer,omitempty"`
	Processing      *processingResponse   `json:"processing,omitempty"`
	ErrorType       string                `json:"error_type,omitempty"`
	ErrorCodes      []string              `json:"error_codes,omitempty"`
	Links           map[string]linkObject `json:"_links,omitempty"`
}

const (
	statusAuthorized     = "Authorized"
	statusCaptured       = "Captured"
	statusCapturePending = "Capture Pending"
	statusDeclined       = "Declined"
	statusPending        = "Pending"
	statusCardVerified   = "Card Verified"
	statusVoided         = "Voided"
	statusVoidPending    = "Void Pending"
	statusRefunded       = "Refunded"
	statusRefundPending  = "Refund Pending"
)

// attemptStatus maps the processor vocabulary into the canonical state
// machine. An authorized native status becomes Charged when the flow
// runs auto-capture.
func attemptStatus(native string, autoCapture bool) (core.AttemptStatus, bool) {
	switch native {
	case statusAuthorized:
		if autoCapture {
			return core.AttemptCharged, true
		}
		return core.AttemptAuthorized, true
	case statusCaptured:
		return core.AttemptCharged, true
	case statusCapturePending:
		return core.AttemptCaptureInitiated, true
	case statusDeclined:
		return core.AttemptAuthorizationFailed, true
	case statusPending:
		return core.AttemptAuthenticationPending, true
	case statusCardVerified:
		return core.AttemptCharged, true
	case statusVoided:
		return core.AttemptVoided, true
	case statusVoidPending:
		return core.AttemptVoidInitiated, true
	default:
		return core.AttemptUnresolved, false
	}
}

func refundStatus(native string) core.RefundStatus {
	switch native {
	case statusRefunded:
		return core.RefundSuccess
	case statusRefundPending:
		return core.RefundPending
	case statusDeclined:
		return core.RefundFailure
	default:
		return core.RefundPending
	}
}
