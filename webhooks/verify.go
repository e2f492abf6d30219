package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// HeaderHMACVerifier checks an HMAC-SHA256 signature of the raw body
// carried in a header. Checkout and Global Payments both sign this way.
type HeaderHMACVerifier struct {
	Header   string
	Prefix   string
	Secret   string
	Encoding string // hex | base64
}

func (v HeaderHMACVerifier) Verify(_ context.Context, delivery Delivery) error {
	header := strings.TrimSpace(headerValue(delivery.Headers, v.Header))
	if header == "" {
		return goerrors.New(
			"webhooks: "+strings.TrimSpace(v.Header)+" signature header is required",
			goerrors.CategoryAuth,
		)
	}
	secret := strings.TrimSpace(v.Secret)
	if secret == "" {
		return goerrors.New("webhooks: signature secret is required", goerrors.CategoryBadInput)
	}
	signature := strings.TrimSpace(strings.TrimPrefix(header, strings.TrimSpace(v.Prefix)))
	if signature == "" {
		return goerrors.New("webhooks: signature value is required", goerrors.CategoryAuth)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(delivery.Body)
	expected := mac.Sum(nil)

	var decoded []byte
	var err error
	switch strings.ToLower(strings.TrimSpace(v.Encoding)) {
	case "base64":
		decoded, err = base64.StdEncoding.DecodeString(signature)
	default:
		decoded, err = hex.DecodeString(signature)
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryAuth, "webhooks: decode signature")
	}
	if subtle.ConstantTimeCompare(decoded, expected) != 1 {
		return goerrors.New("webhooks: signature verification failed", goerrors.CategoryAuth)
	}
	return nil
}

// HeaderTokenVerifier checks a static shared token carried in a header.
type HeaderTokenVerifier struct {
	Header string
	Token  string
}

func (v HeaderTokenVerifier) Verify(_ context.Context, delivery Delivery) error {
	expected := strings.TrimSpace(v.Token)
	if expected == "" {
		return goerrors.New("webhooks: verification token is required", goerrors.CategoryBadInput)
	}
	actual := strings.TrimSpace(headerValue(delivery.Headers, v.Header))
	if actual == "" {
		return goerrors.New(
			"webhooks: "+strings.TrimSpace(v.Header)+" verification header is required",
			goerrors.CategoryAuth,
		)
	}
	if subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) != 1 {
		return goerrors.New("webhooks: verification token mismatch", goerrors.CategoryAuth)
	}
	return nil
}

var (
	_ Verifier = HeaderHMACVerifier{}
	_ Verifier = HeaderTokenVerifier{}
)

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
