package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestErrorResponse_BackfillSentinels(t *testing.T) {
	filled := ErrorResponse{}.Backfill()
	if filled.Code != NoErrorCode {
		t.Fatalf("expected %s, got %q", NoErrorCode, filled.Code)
	}
	if filled.Message != NoErrorMessage {
		t.Fatalf("expected %s, got %q", NoErrorMessage, filled.Message)
	}

	kept := ErrorResponse{Code: "card_declined", Message: "Card declined"}.Backfill()
	if kept.Code != "card_declined" || kept.Message != "Card declined" {
		t.Fatalf("backfill must not overwrite populated fields: %+v", kept)
	}
}

func TestPickDominantError_LowestSeverityWins(t *testing.T) {
	entries := []ErrorResponse{
		{Code: "E_TECH"},
		{Code: "E_BUSINESS"},
		{Code: "E_USER"},
	}
	classify := func(e ErrorResponse) ErrorSeverity {
		switch e.Code {
		case "E_USER":
			return SeverityUserError
		case "E_BUSINESS":
			return SeverityBusinessError
		default:
			return SeverityTechnicalError
		}
	}
	picked, ok := PickDominantError(entries, classify)
	if !ok {
		t.Fatalf("expected a picked entry")
	}
	if picked.Code != "E_USER" {
		t.Fatalf("expected E_USER, got %q", picked.Code)
	}
}

func TestPickDominantError_TieBreaksByOriginalOrder(t *testing.T) {
	entries := []ErrorResponse{
		{Code: "first"},
		{Code: "second"},
	}
	picked, ok := PickDominantError(entries, func(ErrorResponse) ErrorSeverity {
		return SeverityBusinessError
	})
	if !ok || picked.Code != "first" {
		t.Fatalf("expected first entry on tie, got %+v ok=%t", picked, ok)
	}

	if _, ok := PickDominantError(nil, nil); ok {
		t.Fatalf("expected no pick from empty entries")
	}
}

func TestNotImplementedError_Envelope(t *testing.T) {
	err := NotImplementedError("wallet.apple_pay", "checkout")

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected go-errors envelope")
	}
	if richErr.TextCode != PaymentErrorNotImplemented {
		t.Fatalf("expected text code %s, got %s", PaymentErrorNotImplemented, richErr.TextCode)
	}
	if richErr.Category != goerrors.CategoryOperation {
		t.Fatalf("expected operation category, got %v", richErr.Category)
	}
}

func TestPaymentErrorMapper_ClassifiesPlainErrors(t *testing.T) {
	cases := []struct {
		err      error
		textCode string
	}{
		{errors.New("connector not found: nope"), PaymentErrorConnectorNotFound},
		{errors.New("payment method not implemented"), PaymentErrorNotImplemented},
		{errors.New("amount exceeds maximum"), PaymentErrorAmountConversion},
		{errors.New("payment id is required"), PaymentErrorMissingRequiredField},
		{errors.New("gateway unavailable"), PaymentErrorGatewayUnavailable},
	}
	for _, tc := range cases {
		mapped := PaymentErrorMapper(tc.err)
		if mapped == nil {
			t.Fatalf("expected mapped error for %v", tc.err)
		}
		if mapped.TextCode != tc.textCode {
			t.Fatalf("error %q: expected %s, got %s", tc.err, tc.textCode, mapped.TextCode)
		}
		if mapped.Code == 0 {
			t.Fatalf("error %q: expected an http status code", tc.err)
		}
	}
}

func TestPaymentErrorMapper_PreservesRichErrors(t *testing.T) {
	source := ResponseDeserializationError("globalpay", fmt.Errorf("unexpected end of JSON input"))
	mapped := PaymentErrorMapper(source)
	if mapped.TextCode != PaymentErrorResponseDeserialize {
		t.Fatalf("expected deserialize code, got %s", mapped.TextCode)
	}
	if mapped.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", mapped.Code)
	}
	if PaymentErrorMapper(nil) != nil {
		t.Fatalf("nil error must map to nil")
	}
}
