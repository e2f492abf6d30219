package core

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPaymentMethod = errors.New("core: invalid payment method data")

type PaymentMethodKind string

const (
	PaymentMethodCard         PaymentMethodKind = "card"
	PaymentMethodWallet       PaymentMethodKind = "wallet"
	PaymentMethodBankRedirect PaymentMethodKind = "bank_redirect"
	PaymentMethodMandate      PaymentMethodKind = "mandate"
)

func AllPaymentMethodKinds() []PaymentMethodKind {
	return []PaymentMethodKind{
		PaymentMethodCard,
		PaymentMethodWallet,
		PaymentMethodBankRedirect,
		PaymentMethodMandate,
	}
}

type WalletKind string

const (
	WalletApplePay  WalletKind = "apple_pay"
	WalletGooglePay WalletKind = "google_pay"
	WalletPayPal    WalletKind = "paypal"
)

func AllWalletKinds() []WalletKind {
	return []WalletKind{WalletApplePay, WalletGooglePay, WalletPayPal}
}

type BankRedirectKind string

const (
	BankRedirectIdeal   BankRedirectKind = "ideal"
	BankRedirectGiropay BankRedirectKind = "giropay"
	BankRedirectSofort  BankRedirectKind = "sofort"
)

func AllBankRedirectKinds() []BankRedirectKind {
	return []BankRedirectKind{BankRedirectIdeal, BankRedirectGiropay, BankRedirectSofort}
}

type CardData struct {
	Number     Secret
	ExpMonth   string
	ExpYear    string
	CVC        Secret
	HolderName string
	Network    string
}

func (c CardData) Validate() error {
	if c.Number.IsEmpty() {
		return fmt.Errorf("%w: card number is required", ErrInvalidPaymentMethod)
	}
	if strings.TrimSpace(c.ExpMonth) == "" || strings.TrimSpace(c.ExpYear) == "" {
		return fmt.Errorf("%w: card expiry is required", ErrInvalidPaymentMethod)
	}
	return nil
}

type WalletData struct {
	Kind  WalletKind
	Token Secret
}

func (w WalletData) Validate() error {
	switch w.Kind {
	case WalletApplePay, WalletGooglePay, WalletPayPal:
	default:
		return fmt.Errorf("%w: unknown wallet kind %q", ErrInvalidPaymentMethod, string(w.Kind))
	}
	if w.Token.IsEmpty() {
		return fmt.Errorf("%w: wallet token is required", ErrInvalidPaymentMethod)
	}
	return nil
}

type BankRedirectData struct {
	Kind      BankRedirectKind
	BankCode  string
	Country   string
	ReturnURL string
}

func (b BankRedirectData) Validate() error {
	switch b.Kind {
	case BankRedirectIdeal, BankRedirectGiropay, BankRedirectSofort:
		return nil
	default:
		return fmt.Errorf("%w: unknown bank redirect kind %q", ErrInvalidPaymentMethod, string(b.Kind))
	}
}

// MandateData is an off-session charge against a previously stored
// mandate; the reference is the token the connector issued at setup.
type MandateData struct {
	Reference string
}

func (m MandateData) Validate() error {
	if strings.TrimSpace(m.Reference) == "" {
		return fmt.Errorf("%w: mandate reference is required", ErrInvalidPaymentMethod)
	}
	return nil
}

// PaymentMethodData is a closed tagged union: exactly one branch is set.
// Connector request builders dispatch on Kind and must either handle or
// explicitly reject every member; the conformance tests in the
// connectors package enumerate all variants against every transformer.
type PaymentMethodData struct {
	Card         *CardData
	Wallet       *WalletData
	BankRedirect *BankRedirectData
	Mandate      *MandateData
}

func (p PaymentMethodData) Kind() PaymentMethodKind {
	switch {
	case p.Card != nil:
		return PaymentMethodCard
	case p.Wallet != nil:
		return PaymentMethodWallet
	case p.BankRedirect != nil:
		return PaymentMethodBankRedirect
	case p.Mandate != nil:
		return PaymentMethodMandate
	default:
		return ""
	}
}

func (p PaymentMethodData) Validate() error {
	set := 0
	if p.Card != nil {
		set++
	}
	if p.Wallet != nil {
		set++
	}
	if p.BankRedirect != nil {
		set++
	}
	if p.Mandate != nil {
		set++
	}
	if set == 0 {
		return fmt.Errorf("%w: no branch set", ErrInvalidPaymentMethod)
	}
	if set > 1 {
		return fmt.Errorf("%w: %d branches set", ErrInvalidPaymentMethod, set)
	}
	switch {
	case p.Card != nil:
		return p.Card.Validate()
	case p.Wallet != nil:
		return p.Wallet.Validate()
	case p.BankRedirect != nil:
		return p.BankRedirect.Validate()
	default:
		return p.Mandate.Validate()
	}
}

// Label is the human-readable variant name used in NotImplemented
// rejections, including the wallet or bank sub-variant.
func (p PaymentMethodData) Label() string {
	switch {
	case p.Card != nil:
		return string(PaymentMethodCard)
	case p.Wallet != nil:
		return fmt.Sprintf("%s.%s", PaymentMethodWallet, p.Wallet.Kind)
	case p.BankRedirect != nil:
		return fmt.Sprintf("%s.%s", PaymentMethodBankRedirect, p.BankRedirect.Kind)
	case p.Mandate != nil:
		return string(PaymentMethodMandate)
	default:
		return "unset"
	}
}

// SamplePaymentMethods returns one valid instance per variant, covering
// every wallet and bank-redirect sub-variant. Conformance tests feed
// these through each connector's request builder.
func SamplePaymentMethods() []PaymentMethodData {
	samples := []PaymentMethodData{
		{Card: &CardData{
			Number:   NewSecret("4242424242424242"),
			ExpMonth: "03",
			ExpYear:  "2030",
			CVC:      NewSecret("737"),
		}},
		{Mandate: &MandateData{Reference: "900123/900456"}},
	}
	for _, kind := range AllWalletKinds() {
		samples = append(samples, PaymentMethodData{
			Wallet: &WalletData{Kind: kind, Token: NewSecret("wallet_token_sample")},
		})
	}
	for _, kind := range AllBankRedirectKinds() {
		samples = append(samples, PaymentMethodData{
			BankRedirect: &BankRedirectData{Kind: kind, Country: "NL"},
		})
	}
	return samples
}
