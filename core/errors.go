package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Sentinels backfilled into ErrorResponse when a processor omits error
// fields, so downstream consumers never branch on absence.
const (
	NoErrorCode    = "NO_ERROR_CODE"
	NoErrorMessage = "NO_ERROR_MESSAGE"
)

const (
	PaymentErrorNotImplemented       = "PAYMENT_METHOD_NOT_IMPLEMENTED"
	PaymentErrorFlowNotSupported     = "PAYMENT_FLOW_NOT_SUPPORTED"
	PaymentErrorMissingRequiredField = "PAYMENT_MISSING_REQUIRED_FIELD"
	PaymentErrorInvalidAuthType      = "PAYMENT_INVALID_CONNECTOR_AUTH"
	PaymentErrorRequestEncoding      = "PAYMENT_REQUEST_ENCODING_FAILED"
	PaymentErrorResponseDeserialize  = "PAYMENT_RESPONSE_DESERIALIZATION_FAILED"
	PaymentErrorConnectorNotFound    = "PAYMENT_CONNECTOR_NOT_FOUND"
	PaymentErrorAmountConversion     = "PAYMENT_AMOUNT_CONVERSION_FAILED"
	PaymentErrorIntegrityCheckFailed = "PAYMENT_INTEGRITY_CHECK_FAILED"
	PaymentErrorGatewayUnavailable   = "PAYMENT_GATEWAY_UNAVAILABLE"
	PaymentErrorRateLimited          = "PAYMENT_RATE_LIMITED"
	PaymentErrorInternal             = "PAYMENT_INTERNAL_ERROR"
)

// ErrorResponse is the single shape every failure surfaces through:
// transport faults, parse failures, and business declines alike.
type ErrorResponse struct {
	Code                   string
	Message                string
	Reason                 string
	HTTPStatus             int
	AttemptStatus          *AttemptStatus
	ConnectorTransactionID string
}

// Backfill replaces empty code/message with the sentinel values.
func (e ErrorResponse) Backfill() ErrorResponse {
	if strings.TrimSpace(e.Code) == "" {
		e.Code = NoErrorCode
	}
	if strings.TrimSpace(e.Message) == "" {
		e.Message = NoErrorMessage
	}
	return e
}

// ErrorSeverity ranks simultaneous processor error entries. Selection is
// ascending: the entry with the lowest severity wins, ties broken by
// original order.
type ErrorSeverity int

const (
	SeverityUserError ErrorSeverity = iota
	SeverityBusinessError
	SeverityUnknownError
	SeverityTechnicalError
)

// PickDominantError selects the entry to surface when a processor emits
// several ambiguous error codes at once. classify assigns each entry a
// severity; the first entry with the minimum severity is returned.
func PickDominantError(entries []ErrorResponse, classify func(ErrorResponse) ErrorSeverity) (ErrorResponse, bool) {
	if len(entries) == 0 {
		return ErrorResponse{}, false
	}
	if classify == nil {
		return entries[0], true
	}
	best := 0
	bestSeverity := classify(entries[0])
	for i := 1; i < len(entries); i++ {
		if severity := classify(entries[i]); severity < bestSeverity {
			best = i
			bestSeverity = severity
		}
	}
	return entries[best], true
}

// NotImplementedError signals a payment-method variant the connector
// does not support. Builders must reject, never silently drop.
func NotImplementedError(paymentMethod string, connector string) *goerrors.Error {
	return newPaymentError(
		"core: payment method "+paymentMethod+" is not implemented for connector "+connector,
		goerrors.CategoryOperation,
		PaymentErrorNotImplemented,
	).WithMetadata(map[string]any{
		"payment_method": paymentMethod,
		"connector":      connector,
	})
}

// FlowNotSupportedError signals a flow the connector cannot execute.
func FlowNotSupportedError(flow Flow, connector string) *goerrors.Error {
	return newPaymentError(
		"core: flow "+string(flow)+" is not supported by connector "+connector,
		goerrors.CategoryOperation,
		PaymentErrorFlowNotSupported,
	).WithMetadata(map[string]any{
		"flow":      string(flow),
		"connector": connector,
	})
}

func MissingRequiredFieldError(field string, connector string) *goerrors.Error {
	return newPaymentError(
		"core: missing required field "+field+" for connector "+connector,
		goerrors.CategoryBadInput,
		PaymentErrorMissingRequiredField,
	).WithMetadata(map[string]any{
		"field":     field,
		"connector": connector,
	})
}

func InvalidAuthTypeError(connector string, expected string) *goerrors.Error {
	return newPaymentError(
		"core: connector "+connector+" requires "+expected+" credentials",
		goerrors.CategoryBadInput,
		PaymentErrorInvalidAuthType,
	).WithMetadata(map[string]any{
		"connector": connector,
		"expected":  expected,
	})
}

// ResponseDeserializationError is the structural tier: the body could
// not be parsed at all. It aborts the flow before state is mutated.
func ResponseDeserializationError(connector string, cause error) *goerrors.Error {
	return goerrors.Wrap(cause, goerrors.CategoryExternal, "core: connector "+connector+" returned an unparseable response").
		WithTextCode(PaymentErrorResponseDeserialize).
		WithCode(http.StatusBadGateway).
		WithMetadata(map[string]any{"connector": connector})
}

func RequestEncodingError(connector string, cause error) *goerrors.Error {
	return goerrors.Wrap(cause, goerrors.CategoryInternal, "core: failed to encode request for connector "+connector).
		WithTextCode(PaymentErrorRequestEncoding).
		WithMetadata(map[string]any{"connector": connector})
}

func newPaymentError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensurePaymentErrorEnvelope(
		goerrors.New(message, category).WithTextCode(textCode),
	)
}

// PaymentErrorMapper normalizes any error leaving this module into the
// go-errors envelope with a payment text code and an HTTP-equivalent
// status.
func PaymentErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensurePaymentErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not registered"), strings.Contains(msg, "connector not found"):
		return newPaymentError(err.Error(), goerrors.CategoryNotFound, PaymentErrorConnectorNotFound)
	case strings.Contains(msg, "not implemented"):
		return newPaymentError(err.Error(), goerrors.CategoryOperation, PaymentErrorNotImplemented)
	case strings.Contains(msg, "amount"), strings.Contains(msg, "currency"):
		return newPaymentError(err.Error(), goerrors.CategoryBadInput, PaymentErrorAmountConversion)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newPaymentError(err.Error(), goerrors.CategoryBadInput, PaymentErrorMissingRequiredField)
	case strings.Contains(msg, "gateway"), strings.Contains(msg, "unavailable"):
		return newPaymentError(err.Error(), goerrors.CategoryExternal, PaymentErrorGatewayUnavailable)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensurePaymentErrorEnvelope(mapped)
}

func ensurePaymentErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = paymentHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultPaymentTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultPaymentTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return PaymentErrorMissingRequiredField
	case goerrors.CategoryNotFound:
		return PaymentErrorConnectorNotFound
	case goerrors.CategoryOperation:
		return PaymentErrorFlowNotSupported
	case goerrors.CategoryExternal:
		return PaymentErrorGatewayUnavailable
	default:
		return PaymentErrorInternal
	}
}

func paymentHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
