package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownAttemptStatus = errors.New("core: unknown attempt status")
	ErrUnknownRefundStatus  = errors.New("core: unknown refund status")
)

// AttemptStatus is the closed set of states a payment attempt may
// report. Connector transformers map a processor's native vocabulary
// into this set and nothing else.
type AttemptStatus string

const (
	AttemptStarted                     AttemptStatus = "started"
	AttemptAuthenticationPending       AttemptStatus = "authentication_pending"
	AttemptAuthenticationSuccessful    AttemptStatus = "authentication_successful"
	AttemptAuthorizing                 AttemptStatus = "authorizing"
	AttemptAuthorized                  AttemptStatus = "authorized"
	AttemptCharged                     AttemptStatus = "charged"
	AttemptCaptureInitiated            AttemptStatus = "capture_initiated"
	AttemptCaptureFailed               AttemptStatus = "capture_failed"
	AttemptVoidInitiated               AttemptStatus = "void_initiated"
	AttemptVoided                      AttemptStatus = "voided"
	AttemptVoidFailed                  AttemptStatus = "void_failed"
	AttemptAuthorizationFailed         AttemptStatus = "authorization_failed"
	AttemptAuthenticationFailed        AttemptStatus = "authentication_failed"
	AttemptFailure                     AttemptStatus = "failure"
	AttemptPending                     AttemptStatus = "pending"
	AttemptPartialCharged              AttemptStatus = "partial_charged"
	AttemptPartialChargedAndChargeable AttemptStatus = "partial_charged_and_chargeable"
	AttemptAutoRefunded                AttemptStatus = "auto_refunded"
	AttemptUnresolved                  AttemptStatus = "unresolved"
	AttemptRouterDeclined              AttemptStatus = "router_declined"
	AttemptPaymentMethodAwaited        AttemptStatus = "payment_method_awaited"
	AttemptConfirmationAwaited         AttemptStatus = "confirmation_awaited"
	AttemptDeviceDataCollectionPending AttemptStatus = "device_data_collection_pending"
	AttemptCodInitiated                AttemptStatus = "cod_initiated"
)

// AllAttemptStatuses returns every legal attempt status. Exhaustiveness
// tests iterate this instead of re-listing the constants.
func AllAttemptStatuses() []AttemptStatus {
	return []AttemptStatus{
		AttemptStarted,
		AttemptAuthenticationPending,
		AttemptAuthenticationSuccessful,
		AttemptAuthorizing,
		AttemptAuthorized,
		AttemptCharged,
		AttemptCaptureInitiated,
		AttemptCaptureFailed,
		AttemptVoidInitiated,
		AttemptVoided,
		AttemptVoidFailed,
		AttemptAuthorizationFailed,
		AttemptAuthenticationFailed,
		AttemptFailure,
		AttemptPending,
		AttemptPartialCharged,
		AttemptPartialChargedAndChargeable,
		AttemptAutoRefunded,
		AttemptUnresolved,
		AttemptRouterDeclined,
		AttemptPaymentMethodAwaited,
		AttemptConfirmationAwaited,
		AttemptDeviceDataCollectionPending,
		AttemptCodInitiated,
	}
}

func (s AttemptStatus) Validate() error {
	for _, known := range AllAttemptStatuses() {
		if s == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownAttemptStatus, string(s))
}

// IsPaymentFailure reports whether the status belongs to the failure
// class. Transformers must keep their native-status mappings consistent
// with this predicate: a failure-class status always travels with an
// ErrorResponse, never with a success payload.
func (s AttemptStatus) IsPaymentFailure() bool {
	switch s {
	case AttemptAuthenticationFailed,
		AttemptAuthorizationFailed,
		AttemptCaptureFailed,
		AttemptVoidFailed,
		AttemptFailure:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether callers should stop polling the attempt.
// Failure states are terminal; so are the settled success states and a
// router-side decline.
func (s AttemptStatus) IsTerminal() bool {
	if s.IsPaymentFailure() {
		return true
	}
	switch s {
	case AttemptCharged, AttemptVoided, AttemptAutoRefunded, AttemptPartialCharged, AttemptRouterDeclined:
		return true
	default:
		return false
	}
}

// RefundStatus is the closed set of states a refund may report.
type RefundStatus string

const (
	RefundSuccess            RefundStatus = "success"
	RefundPending            RefundStatus = "pending"
	RefundFailure            RefundStatus = "failure"
	RefundTransactionFailure RefundStatus = "transaction_failure"
	RefundManualReview       RefundStatus = "manual_review"
)

func AllRefundStatuses() []RefundStatus {
	return []RefundStatus{
		RefundSuccess,
		RefundPending,
		RefundFailure,
		RefundTransactionFailure,
		RefundManualReview,
	}
}

func (s RefundStatus) Validate() error {
	for _, known := range AllRefundStatuses() {
		if s == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownRefundStatus, string(s))
}

// IsRefundFailure reports whether the refund status belongs to the
// failure class.
func (s RefundStatus) IsRefundFailure() bool {
	return s == RefundFailure || s == RefundTransactionFailure
}

// Flow names one payment lifecycle operation.
type Flow string

const (
	FlowAuthorize    Flow = "authorize"
	FlowCapture      Flow = "capture"
	FlowVoid         Flow = "void"
	FlowRefund       Flow = "refund"
	FlowPaymentSync  Flow = "payment_sync"
	FlowRefundSync   Flow = "refund_sync"
	FlowSetupMandate Flow = "setup_mandate"
	FlowConfirm      Flow = "confirm"
)

func AllFlows() []Flow {
	return []Flow{
		FlowAuthorize,
		FlowCapture,
		FlowVoid,
		FlowRefund,
		FlowPaymentSync,
		FlowRefundSync,
		FlowSetupMandate,
		FlowConfirm,
	}
}

func (f Flow) Validate() error {
	for _, known := range AllFlows() {
		if f == known {
			return nil
		}
	}
	return fmt.Errorf("core: unknown flow %q", string(f))
}

// CaptureMethod is the capture mode requested for an authorization.
type CaptureMethod string

const (
	CaptureAutomatic      CaptureMethod = "automatic"
	CaptureManual         CaptureMethod = "manual"
	CaptureManualMultiple CaptureMethod = "manual_multiple"
)

func (m CaptureMethod) IsAutoCapture() bool {
	return m == "" || m == CaptureAutomatic
}

// CaptureSyncMethod is how a connector reconciles multi-capture status:
// one bulk call for the whole attempt, or one call per capture.
type CaptureSyncMethod string

const (
	CaptureSyncBulk       CaptureSyncMethod = "bulk"
	CaptureSyncIndividual CaptureSyncMethod = "individual"
)

func normalizeID(id string) string {
	return strings.TrimSpace(id)
}
