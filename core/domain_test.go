package core

import "testing"

func TestAttemptStatus_FailureClassification(t *testing.T) {
	failures := map[AttemptStatus]struct{}{
		AttemptAuthenticationFailed: {},
		AttemptAuthorizationFailed:  {},
		AttemptCaptureFailed:        {},
		AttemptVoidFailed:           {},
		AttemptFailure:              {},
	}
	for _, status := range AllAttemptStatuses() {
		_, expected := failures[status]
		if got := status.IsPaymentFailure(); got != expected {
			t.Fatalf("status %q: expected IsPaymentFailure=%t, got %t", status, expected, got)
		}
	}
}

func TestAttemptStatus_FailureImpliesTerminal(t *testing.T) {
	for _, status := range AllAttemptStatuses() {
		if status.IsPaymentFailure() && !status.IsTerminal() {
			t.Fatalf("failure status %q must be terminal", status)
		}
	}
	if AttemptPending.IsTerminal() {
		t.Fatalf("pending must not be terminal")
	}
	if AttemptUnresolved.IsTerminal() {
		t.Fatalf("unresolved must not be terminal")
	}
	if !AttemptCharged.IsTerminal() {
		t.Fatalf("charged must be terminal")
	}
}

func TestAttemptStatus_ValidateRejectsUnknown(t *testing.T) {
	if err := AttemptStatus("settled").Validate(); err == nil {
		t.Fatalf("expected unknown attempt status error")
	}
	for _, status := range AllAttemptStatuses() {
		if err := status.Validate(); err != nil {
			t.Fatalf("status %q should validate: %v", status, err)
		}
	}
}

func TestRefundStatus_FailureClassification(t *testing.T) {
	for _, status := range AllRefundStatuses() {
		expected := status == RefundFailure || status == RefundTransactionFailure
		if got := status.IsRefundFailure(); got != expected {
			t.Fatalf("refund status %q: expected IsRefundFailure=%t, got %t", status, expected, got)
		}
	}
}

func TestCurrency_ExponentRules(t *testing.T) {
	cases := []struct {
		currency Currency
		exponent int
	}{
		{"USD", 2},
		{"EUR", 2},
		{"JPY", 0},
		{"KRW", 0},
		{"CLP", 0},
		{"VND", 0},
		{"KWD", 3},
		{"BHD", 3},
		{"OMR", 3},
		{"XYZ", 2},
	}
	for _, tc := range cases {
		if got := tc.currency.Exponent(); got != tc.exponent {
			t.Fatalf("currency %q: expected exponent %d, got %d", tc.currency, tc.exponent, got)
		}
	}
}

func TestCaptureMethod_AutoCapture(t *testing.T) {
	if !CaptureAutomatic.IsAutoCapture() {
		t.Fatalf("automatic must be auto capture")
	}
	if !CaptureMethod("").IsAutoCapture() {
		t.Fatalf("unset capture method defaults to auto capture")
	}
	if CaptureManual.IsAutoCapture() {
		t.Fatalf("manual must not be auto capture")
	}
}
