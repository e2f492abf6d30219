package globalpay

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/goliatone/go-payments/core"
)

func signatureAuth() core.ConnectorAuth {
	return core.ConnectorAuth{
		Kind:      core.AuthSignatureKey,
		APIKey:    core.NewSecret("app_id_1"),
		Key1:      core.NewSecret("account_1"),
		APISecret: core.NewSecret("app_key_1"),
	}
}

func bearerToken() *core.AccessToken {
	return &core.AccessToken{
		Token:     core.NewSecret("tok_live"),
		ExpiresIn: time.Hour,
		CreatedAt: time.Now(),
	}
}

func cardMethod() core.PaymentMethodData {
	return core.PaymentMethodData{Card: &core.CardData{
		Number:   core.NewSecret("4263970000005262"),
		ExpMonth: "05",
		ExpYear:  "2029",
		CVC:      core.NewSecret("852"),
	}}
}

func authorizeData(req core.AuthorizeRequest) *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse] {
	return &core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]{
		Connector:   ConnectorID,
		Auth:        signatureAuth(),
		AccessToken: bearerToken(),
		Request:     req,
	}
}

func TestConnector_Identity(t *testing.T) {
	connector := New(Config{})
	if connector.AmountRepresentation() != core.AmountMinorUnitString {
		t.Fatalf("unexpected amount representation %q", connector.AmountRepresentation())
	}
	if connector.CaptureSyncMethod() != core.CaptureSyncBulk {
		t.Fatalf("unexpected capture sync method %q", connector.CaptureSyncMethod())
	}
}

func TestAccessTokenExchange(t *testing.T) {
	connector := New(Config{})
	connector.nonce = func() string { return "nonce-1" }
	fixed := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	connector.now = func() time.Time { return fixed }

	wire, err := connector.BuildAccessTokenRequest(signatureAuth())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wire.Path != "/accesstoken" {
		t.Fatalf("unexpected path %q", wire.Path)
	}
	var body accessTokenRequest
	if err := json.Unmarshal(wire.Body, &body); err != nil {
		t.Fatalf("body does not decode: %v", err)
	}
	digest := sha512.Sum512([]byte("nonce-1app_key_1"))
	if body.Secret != hex.EncodeToString(digest[:]) {
		t.Fatalf("secret must be sha512(nonce+app key), got %q", body.Secret)
	}
	if body.AppID != "app_id_1" || body.GrantType != "client_credentials" {
		t.Fatalf("unexpected token request %+v", body)
	}

	token, err := connector.ParseAccessTokenResponse(core.WireResponse{
		StatusCode: 200,
		Body:       []byte(`{"token": "tok_abc", "seconds_to_expire": 600}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Token.Expose() != "tok_abc" {
		t.Fatalf("unexpected token value")
	}
	if token.ExpiresIn != 10*time.Minute || !token.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected token lifetime %+v", token)
	}
	if token.IsExpired(fixed.Add(9 * time.Minute)) {
		t.Fatalf("token must still be live before expiry")
	}
	if !token.IsExpired(fixed.Add(11 * time.Minute)) {
		t.Fatalf("token must expire after its lifetime")
	}
}

func TestAccessTokenExchange_WrongAuthKind(t *testing.T) {
	connector := New(Config{})
	auth := core.ConnectorAuth{Kind: core.AuthHeaderKey, APIKey: core.NewSecret("k")}
	if _, err := connector.BuildAccessTokenRequest(auth); err == nil {
		t.Fatalf("expected invalid auth type rejection")
	}
}

func TestBuildAuthorizeRequest_CardMinorUnitString(t *testing.T) {
	connector := New(Config{})
	data := authorizeData(core.AuthorizeRequest{
		MerchantReference: "order-55",
		Amount:            core.MinorUnit(1050),
		Currency:          core.CurrencyUSD,
		PaymentMethod:     cardMethod(),
		CaptureMethod:     core.CaptureManual,
		BillingAddress: &core.Address{
			Line1:   "221B Baker Street",
			Line2:   "Marylebone",
			Line3:   "Westminster",
			City:    "London",
			Zip:     "NW1 6XE",
			Country: "GB",
		},
	})

	wire, err := connector.BuildAuthorizeRequest(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := wire.Headers["Authorization"]; got != "Bearer tok_live" {
		t.Fatalf("unexpected auth header %q", got)
	}
	if got := wire.Headers["X-GP-Version"]; got != apiVersion {
		t.Fatalf("unexpected version header %q", got)
	}

	var body paymentRequest
	if err := json.Unmarshal(wire.Body, &body); err != nil {
		t.Fatalf("body does not decode: %v", err)
	}
	if body.Amount != "1050" {
		t.Fatalf("minor units must render as a string, got %q", body.Amount)
	}
	if body.CaptureMode != captureModeLater {
		t.Fatalf("manual capture must request %s, got %q", captureModeLater, body.CaptureMode)
	}
	if body.Billing == nil || body.Billing.StreetAddress != "221B Baker Street Marylebone Westminster" {
		t.Fatalf("address lines must combine under the budget: %+v", body.Billing)
	}
}

func TestBuildAuthorizeRequest_BankRedirect(t *testing.T) {
	connector := New(Config{})
	data := authorizeData(core.AuthorizeRequest{
		Amount:   core.MinorUnit(2500),
		Currency: core.CurrencyEUR,
		PaymentMethod: core.PaymentMethodData{BankRedirect: &core.BankRedirectData{
			Kind:    core.BankRedirectIdeal,
			Country: "NL",
		}},
		ReturnURL: "https://merchant.example.com/return",
	})
	wire, err := connector.BuildAuthorizeRequest(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body paymentRequest
	if err := json.Unmarshal(wire.Body, &body); err != nil {
		t.Fatalf("body does not decode: %v", err)
	}
	if body.PaymentMethod.APM == nil || body.PaymentMethod.APM.Provider != "ideal" {
		t.Fatalf("unexpected payment method %+v", body.PaymentMethod)
	}
	if body.PaymentMethod.APM.ReturnURL != "https://merchant.example.com/return" {
		t.Fatalf("return url missing: %+v", body.PaymentMethod.APM)
	}
}

func TestBuildAuthorizeRequest_MissingAccessToken(t *testing.T) {
	connector := New(Config{})
	data := authorizeData(core.AuthorizeRequest{
		Amount:        core.MinorUnit(100),
		Currency:      core.CurrencyUSD,
		PaymentMethod: cardMethod(),
	})
	data.AccessToken = nil
	if _, err := connector.BuildAuthorizeRequest(data); err == nil {
		t.Fatalf("builders must reject a missing access token")
	}
}

func TestParseAuthorizeResponse_RedirectPending(t *testing.T) {
	connector := New(Config{})
	data := authorizeData(core.AuthorizeRequest{
		Amount:   core.MinorUnit(2500),
		Currency: core.CurrencyEUR,
		PaymentMethod: core.PaymentMethodData{BankRedirect: &core.BankRedirectData{
			Kind: core.BankRedirectIdeal,
		}},
	})
	body := []byte(`{
		"id": "TRN_1",
		"status": "INITIATED",
		"payment_method": {"redirect_url": "https://bank.example.com/hop"}
	}`)
	if err := connector.ParseAuthorizeResponse(data, core.WireResponse{StatusCode: 200, Body: body}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Status != core.AttemptAuthenticationPending {
		t.Fatalf("initiated redirect must be authentication_pending, got %q", data.Status)
	}
	if data.Response.RedirectURL != "https://bank.example.com/hop" {
		t.Fatalf("redirect url missing: %+v", data.Response)
	}
}

func TestParseAuthorizeResponse_DeclineBackfillsSentinels(t *testing.T) {
	connector := New(Config{})
	data := authorizeData(core.AuthorizeRequest{
		Amount:        core.MinorUnit(100),
		Currency:      core.CurrencyUSD,
		PaymentMethod: cardMethod(),
	})
	body := []byte(`{"id": "TRN_2", "status": "DECLINED"}`)
	if err := connector.ParseAuthorizeResponse(data, core.WireResponse{StatusCode: 200, Body: body}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Status != core.AttemptAuthorizationFailed {
		t.Fatalf("expected authorization_failed, got %q", data.Status)
	}
	if data.Error.Code != core.NoErrorCode || data.Error.Message != core.NoErrorMessage {
		t.Fatalf("decline without detail must backfill sentinels: %+v", data.Error)
	}
}

func TestParseSyncResponse_ServerBusyLeavesStateUntouched(t *testing.T) {
	connector := New(Config{})
	data := &core.RouterData[core.SyncRequest, core.PaymentsResponse]{
		Connector:   ConnectorID,
		Auth:        signatureAuth(),
		AccessToken: bearerToken(),
		Request: core.SyncRequest{
			ConnectorTransactionID: "TRN_1",
			Currency:               core.CurrencyUSD,
		},
	}
	if err := data.SetResponse(core.AttemptAuthorized, core.PaymentsResponse{ConnectorTransactionID: "TRN_1"}); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	before := *data

	body := []byte(`{"error_code": "50002", "detailed_error_description": "Processing in progress, try again later"}`)
	if err := connector.ParseSyncResponse(data, core.WireResponse{StatusCode: 200, Body: body}); err != nil {
		t.Fatalf("busy reply must not error: %v", err)
	}
	if !reflect.DeepEqual(before, *data) {
		t.Fatalf("busy reply must leave the envelope untouched\nbefore: %+v\nafter:  %+v", before, *data)
	}
}

func TestParseRefundSyncResponse_BusyCodeStillFails(t *testing.T) {
	connector := New(Config{})
	data := &core.RouterData[core.RefundSyncRequest, core.RefundResponse]{
		Connector:   ConnectorID,
		Auth:        signatureAuth(),
		AccessToken: bearerToken(),
		Request:     core.RefundSyncRequest{ConnectorRefundID: "TRN_R"},
	}
	body := []byte(`{"error_code": "50002", "detailed_error_description": "Processing in progress, try again later"}`)
	if err := connector.ParseRefundSyncResponse(data, core.WireResponse{StatusCode: 200, Body: body}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Status != core.AttemptFailure || data.Error == nil {
		t.Fatalf("refund sync has no busy escape, expected a recorded failure: %+v", data)
	}
}

func TestParseSyncResponse_CapturedAmount(t *testing.T) {
	connector := New(Config{})
	data := &core.RouterData[core.SyncRequest, core.PaymentsResponse]{
		Connector:   ConnectorID,
		Auth:        signatureAuth(),
		AccessToken: bearerToken(),
		Request: core.SyncRequest{
			ConnectorTransactionID: "TRN_1",
			Currency:               core.CurrencyUSD,
			CaptureMethod:          core.CaptureAutomatic,
		},
	}
	body := []byte(`{"id": "TRN_1", "status": "CAPTURED", "amount": "1050", "currency": "USD"}`)
	if err := connector.ParseSyncResponse(data, core.WireResponse{StatusCode: 200, Body: body}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Status != core.AttemptCharged {
		t.Fatalf("expected charged, got %q", data.Status)
	}
	if data.Response.AmountCaptured == nil || *data.Response.AmountCaptured != core.MinorUnit(1050) {
		t.Fatalf("captured amount must surface: %+v", data.Response.AmountCaptured)
	}
}

func TestRefundFlow(t *testing.T) {
	connector := New(Config{})
	data := &core.RouterData[core.RefundRequest, core.RefundResponse]{
		Connector:   ConnectorID,
		Auth:        signatureAuth(),
		AccessToken: bearerToken(),
		Request: core.RefundRequest{
			RefundID:               "ref_1",
			ConnectorTransactionID: "TRN_1",
			Amount:                 core.MinorUnit(300),
			Currency:               core.CurrencyUSD,
		},
	}
	wire, err := connector.BuildRefundRequest(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wire.Path != "/transactions/TRN_1/refund" {
		t.Fatalf("unexpected path %q", wire.Path)
	}
	var body amountRequest
	if err := json.Unmarshal(wire.Body, &body); err != nil {
		t.Fatalf("body does not decode: %v", err)
	}
	if body.Amount != "300" {
		t.Fatalf("unexpected refund amount %q", body.Amount)
	}

	reply := []byte(`{"id": "TRN_R", "status": "CAPTURED"}`)
	if err := connector.ParseRefundResponse(data, core.WireResponse{StatusCode: 200, Body: reply}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Response.ConnectorRefundID != "TRN_R" || data.Response.RefundStatus != core.RefundSuccess {
		t.Fatalf("unexpected refund response %+v", data.Response)
	}
}

func TestParseRefundResponse_NativeDeclineCarriesErrorDetails(t *testing.T) {
	connector := New(Config{})
	data := &core.RouterData[core.RefundRequest, core.RefundResponse]{
		Connector:   ConnectorID,
		Auth:        signatureAuth(),
		AccessToken: bearerToken(),
		Request:     core.RefundRequest{RefundID: "ref_1", ConnectorTransactionID: "TRN_1"},
	}
	body := []byte(`{"id": "TRN_D", "status": "DECLINED"}`)
	if err := connector.ParseRefundResponse(data, core.WireResponse{StatusCode: 200, Body: body}); err != nil {
		t.Fatalf("a declined refund is a recorded outcome: %v", err)
	}
	if data.Response == nil || data.Response.RefundStatus != core.RefundFailure {
		t.Fatalf("unexpected refund response %+v", data.Response)
	}
	if data.Response.Error == nil || data.Response.Error.Code != core.NoErrorCode {
		t.Fatalf("declined refund must carry backfilled error details: %+v", data.Response.Error)
	}

	synced := &core.RouterData[core.RefundSyncRequest, core.RefundResponse]{
		Connector:   ConnectorID,
		Auth:        signatureAuth(),
		AccessToken: bearerToken(),
		Request:     core.RefundSyncRequest{ConnectorRefundID: "TRN_D"},
	}
	if err := connector.ParseRefundSyncResponse(synced, core.WireResponse{StatusCode: 200, Body: body}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if synced.Response == nil || synced.Response.RefundStatus != core.RefundFailure || synced.Response.Error == nil {
		t.Fatalf("refund sync decline must carry error details: %+v", synced.Response)
	}
}

func TestBuildAuthorizeRequest_RejectsDeviceWallets(t *testing.T) {
	connector := New(Config{})
	for _, kind := range []core.WalletKind{core.WalletApplePay, core.WalletGooglePay} {
		data := authorizeData(core.AuthorizeRequest{
			Amount:        core.MinorUnit(100),
			Currency:      core.CurrencyUSD,
			PaymentMethod: core.PaymentMethodData{Wallet: &core.WalletData{Kind: kind, Token: core.NewSecret("tok")}},
		})
		if _, err := connector.BuildAuthorizeRequest(data); err == nil {
			t.Fatalf("wallet %s must be rejected", kind)
		}
	}
}
