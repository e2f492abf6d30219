package authorizenet

import "github.com/goliatone/go-payments/core"

// The gateway exposes a single endpoint; the request wrapper key names
// the operation. Amounts travel as major-unit JSON numbers.

type merchantAuthentication struct {
	Name           string `json:"name"`
	TransactionKey string `json:"transactionKey"`
}

type creditCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CardCode       string `json:"cardCode,omitempty"`
}

type opaqueData struct {
	DataDescriptor string `json:"dataDescriptor"`
	DataValue      string `json:"dataValue"`
}

type paymentDetails struct {
	CreditCard *creditCard `json:"creditCard,omitempty"`
	OpaqueData *opaqueData `json:"opaqueData,omitempty"`
}

type paymentProfileRef struct {
	PaymentProfileID string `json:"paymentProfileId"`
}

type profileRequest struct {
	CustomerProfileID string             `json:"customerProfileId"`
	PaymentProfile    *paymentProfileRef `json:"paymentProfile,omitempty"`
	CreateProfile     bool               `json:"createProfile,omitempty"`
}

type billTo struct {
	FirstName string `json:"firstName,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
}

type transactionRequest struct {
	TransactionType string          `json:"transactionType"`
	Amount          float64         `json:"amount,omitempty"`
	CurrencyCode    string          `json:"currencyCode,omitempty"`
	Payment         *paymentDetails `json:"payment,omitempty"`
	Profile         *profileRequest `json:"profile,omitempty"`
	RefTransID      string          `json:"refTransId,omitempty"`
	BillTo          *billTo         `json:"billTo,omitempty"`
}

type createTransactionBody struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	RefID                  string                 `json:"refId,omitempty"`
	TransactionRequest     transactionRequest     `json:"transactionRequest"`
}

type createTransactionEnvelope struct {
	CreateTransactionRequest createTransactionBody `json:"createTransactionRequest"`
}

type transactionDetailsBody struct {
	MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
	TransID                string                 `json:"transId"`
}

type transactionDetailsEnvelope struct {
	GetTransactionDetailsRequest transactionDetailsBody `json:"getTransactionDetailsRequest"`
}

type transactionError struct {
	ErrorCode string `json:"errorCode"`
	ErrorText string `json:"errorText"`
}

type transactionMessage struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type transactionProfile struct {
	CustomerProfileID        string `json:"customerProfileId"`
	CustomerPaymentProfileID string `json:"customerPaymentProfileId"`
}

type transactionResponse struct {
	ResponseCode   string               `json:"responseCode"`
	AuthCode       string               `json:"authCode,omitempty"`
	AVSResultCode  string               `json:"avsResultCode,omitempty"`
	CVVResultCode  string               `json:"cvvResultCode,omitempty"`
	TransID        string               `json:"transId,omitempty"`
	RefTransID     string               `json:"refTransId,omitempty"`
	NetworkTransID string               `json:"networkTransId,omitempty"`
	Profile        *transactionProfile  `json:"profile,omitempty"`
	Errors         []transactionError   `json:"errors,omitempty"`
	Messages       []transactionMessage `json:"messages,omitempty"`
}

type profileResponse struct {
	CustomerProfileID            string   `json:"customerProfileId"`
	CustomerPaymentProfileIDList []string `json:"customerPaymentProfileIdList,omitempty"`
}

type apiMessage struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type apiMessages struct {
	ResultCode string       `json:"resultCode"`
	Message    []apiMessage `json:"message"`
}

type createTransactionResponse struct {
	TransactionResponse *transactionResponse `json:"transactionResponse,omitempty"`
	ProfileResponse     *profileResponse     `json:"profileResponse,omitempty"`
	RefID               string               `json:"refId,omitempty"`
	Messages            apiMessages          `json:"messages"`
}

type transactionDetails struct {
	TransID           string  `json:"transId"`
	TransactionStatus string  `json:"transactionStatus"`
	ResponseCode      int     `json:"responseCode,omitempty"`
	AuthAmount        float64 `json:"authAmount,omitempty"`
	SettleAmount      float64 `json:"settleAmount,omitempty"`
}

type transactionDetailsResponse struct {
	Transaction *transactionDetails `json:"transaction,omitempty"`
	Messages    apiMessages         `json:"messages"`
}

const (
	resultCodeOK    = "Ok"
	resultCodeError = "Error"

	responseApproved = "1"
	responseDeclined = "2"
	responseError    = "3"
	responseHeld     = "4"
	responsePending  = "5"
)

// attemptStatus maps the gateway's numeric response codes. Approved
// rides on the flow's capture mode; held-for-review and pending both
// stay in flight.
func attemptStatus(responseCode string, autoCapture bool) (core.AttemptStatus, bool) {
	switch responseCode {
	case responseApproved:
		if autoCapture {
			return core.AttemptCharged, true
		}
		return core.AttemptAuthorized, true
	case responseDeclined:
		return core.AttemptAuthorizationFailed, true
	case responseError:
		return core.AttemptFailure, true
	case responseHeld, responsePending:
		return core.AttemptPending, true
	default:
		return core.AttemptUnresolved, false
	}
}

func refundStatus(responseCode string) core.RefundStatus {
	switch responseCode {
	case responseApproved:
		return core.RefundSuccess
	case responseDeclined:
		return core.RefundFailure
	case responseError:
		return core.RefundTransactionFailure
	case responseHeld:
		return core.RefundManualReview
	default:
		return core.RefundPending
	}
}

// syncStatus maps the transaction-details vocabulary used by the
// polling endpoint, which differs from the numeric submit codes.
func syncStatus(transactionStatus string) (core.AttemptStatus, bool) {
	switch transactionStatus {
	case "authorizedPendingCapture":
		return core.AttemptAuthorized, true
	case "capturedPendingSettlement", "settledSuccessfully":
		return core.AttemptCharged, true
	case "declined":
		return core.AttemptAuthorizationFailed, true
	case "generalError", "failedReview":
		return core.AttemptFailure, true
	case "voided":
		return core.AttemptVoided, true
	case "FDSPendingReview", "FDSAuthorizedPendingReview":
		return core.AttemptPending, true
	case "refundSettledSuccessfully", "refundPendingSettlement":
		return core.AttemptAutoRefunded, true
	default:
		return core.AttemptUnresolved, false
	}
}

// errorSeverity ranks the gateway's submit error codes so the least
// severe entry is surfaced when several arrive at once. Field and
// validation problems sit below declines, which sit below gateway
// faults; unrecognized codes stay unknown.
func errorSeverity(entry core.ErrorResponse) core.ErrorSeverity {
	switch entry.Code {
	case "5", "6", "7", "8", "33", "315", "316", "317":
		return core.SeverityUserError
	case "2", "3", "4", "11", "41", "44", "45", "250", "251":
		return core.SeverityBusinessError
	case "19", "20", "21", "22", "23", "25", "26", "57", "120", "121", "122":
		return core.SeverityTechnicalError
	default:
		return core.SeverityUnknownError
	}
}
