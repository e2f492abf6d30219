package core

import (
	"testing"
	"time"
)

func TestRouterData_SetResponseRejectsFailureStatus(t *testing.T) {
	data := &RouterData[AuthorizeRequest, PaymentsResponse]{Connector: "checkout"}

	if err := data.SetResponse(AttemptFailure, PaymentsResponse{}); err == nil {
		t.Fatalf("expected failure status to be rejected")
	}
	if err := data.SetResponse(AttemptAuthorized, PaymentsResponse{ConnectorTransactionID: "tx_1"}); err != nil {
		t.Fatalf("set response: %v", err)
	}
	if data.Response == nil || data.Response.ConnectorTransactionID != "tx_1" {
		t.Fatalf("expected response payload, got %+v", data.Response)
	}
	if data.Error != nil {
		t.Fatalf("success outcome must clear the error")
	}
	if err := data.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestRouterData_SetErrorRequiresFailureStatus(t *testing.T) {
	data := &RouterData[AuthorizeRequest, PaymentsResponse]{Connector: "checkout"}

	if err := data.SetError(AttemptAuthorized, ErrorResponse{}); err == nil {
		t.Fatalf("expected non-failure status to be rejected")
	}
	if err := data.SetError(AttemptAuthorizationFailed, ErrorResponse{}); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if data.Error == nil {
		t.Fatalf("expected error outcome")
	}
	if data.Error.Code != NoErrorCode || data.Error.Message != NoErrorMessage {
		t.Fatalf("expected sentinel backfill, got %+v", data.Error)
	}
	if data.Response != nil {
		t.Fatalf("failure outcome must clear the response")
	}
	if err := data.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestRouterData_ValidateDetectsInconsistentOutcome(t *testing.T) {
	inconsistent := &RouterData[SyncRequest, PaymentsResponse]{
		Connector: "globalpay",
		Status:    AttemptFailure,
	}
	if err := inconsistent.Validate(); err == nil {
		t.Fatalf("failure status without error must fail validation")
	}

	inconsistent.Error = &ErrorResponse{Code: "x"}
	inconsistent.Response = &PaymentsResponse{}
	if err := inconsistent.Validate(); err == nil {
		t.Fatalf("failure status with success payload must fail validation")
	}

	mixed := &RouterData[SyncRequest, PaymentsResponse]{
		Connector: "globalpay",
		Status:    AttemptPending,
		Error:     &ErrorResponse{Code: "x"},
	}
	if err := mixed.Validate(); err == nil {
		t.Fatalf("non-failure status with error must fail validation")
	}
}

func TestConnectorAuth_Validate(t *testing.T) {
	if err := (ConnectorAuth{Kind: AuthHeaderKey, APIKey: NewSecret("k")}).Validate(); err != nil {
		t.Fatalf("header key auth: %v", err)
	}
	if err := (ConnectorAuth{Kind: AuthHeaderKey}).Validate(); err == nil {
		t.Fatalf("expected missing api key error")
	}
	if err := (ConnectorAuth{Kind: AuthSignatureKey, APIKey: NewSecret("k"), Key1: NewSecret("m")}).Validate(); err == nil {
		t.Fatalf("expected missing api secret error")
	}
	if err := (ConnectorAuth{Kind: "jwt"}).Validate(); err == nil {
		t.Fatalf("expected unknown auth kind error")
	}
}

func TestPaymentMethodData_UnionInvariants(t *testing.T) {
	if err := (PaymentMethodData{}).Validate(); err == nil {
		t.Fatalf("expected empty union to fail")
	}
	both := PaymentMethodData{
		Card:    &CardData{Number: NewSecret("4111"), ExpMonth: "01", ExpYear: "2031"},
		Mandate: &MandateData{Reference: "m"},
	}
	if err := both.Validate(); err == nil {
		t.Fatalf("expected multi-branch union to fail")
	}
	for _, sample := range SamplePaymentMethods() {
		if err := sample.Validate(); err != nil {
			t.Fatalf("sample %s should validate: %v", sample.Label(), err)
		}
		if sample.Kind() == "" {
			t.Fatalf("sample %s has no kind", sample.Label())
		}
	}
}

func TestAccessToken_IsExpired(t *testing.T) {
	now := time.Now().UTC()
	fresh := AccessToken{Token: NewSecret("t"), ExpiresIn: time.Hour, CreatedAt: now}
	if fresh.IsExpired(now.Add(30 * time.Minute)) {
		t.Fatalf("token should still be valid")
	}
	if !fresh.IsExpired(now.Add(2 * time.Hour)) {
		t.Fatalf("token should have expired")
	}
	eternal := AccessToken{Token: NewSecret("t"), CreatedAt: now}
	if eternal.IsExpired(now.Add(100 * time.Hour)) {
		t.Fatalf("zero expiry means non-expiring")
	}
}
