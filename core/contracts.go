package core

import (
	"context"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// ConnectorAuthKind discriminates the credential shapes a processor
// account can carry.
type ConnectorAuthKind string

const (
	AuthHeaderKey    ConnectorAuthKind = "header_key"
	AuthBodyKey      ConnectorAuthKind = "body_key"
	AuthSignatureKey ConnectorAuthKind = "signature_key"
)

// ConnectorAuth is the opaque merchant credential for one processor
// account. Exactly the fields for its kind are populated; everything is
// Secret-wrapped.
type ConnectorAuth struct {
	Kind      ConnectorAuthKind
	APIKey    Secret
	Key1      Secret
	APISecret Secret
}

func (a ConnectorAuth) Validate() error {
	switch a.Kind {
	case AuthHeaderKey:
		if a.APIKey.IsEmpty() {
			return fmt.Errorf("core: header key auth requires an api key")
		}
	case AuthBodyKey:
		if a.APIKey.IsEmpty() || a.Key1.IsEmpty() {
			return fmt.Errorf("core: body key auth requires an api key and key1")
		}
	case AuthSignatureKey:
		if a.APIKey.IsEmpty() || a.Key1.IsEmpty() || a.APISecret.IsEmpty() {
			return fmt.Errorf("core: signature key auth requires api key, key1 and api secret")
		}
	default:
		return fmt.Errorf("core: unknown connector auth kind %q", string(a.Kind))
	}
	return nil
}

// Address is the subset of billing/shipping data transformers consume.
type Address struct {
	Line1   string
	Line2   string
	Line3   string
	City    string
	State   string
	Zip     string
	Country string
}

// MandateReference is what a connector hands back when it stores a
// credential for future off-session use.
type MandateReference struct {
	ConnectorMandateID string
	PaymentMethodID    string
}

// AdditionalConnectorResponse carries network/scheme transaction ids and
// AVS/CVV diagnostics when the processor reports them. It is only
// attached when at least one field is present; transformers never
// fabricate it.
type AdditionalConnectorResponse struct {
	NetworkTransactionID string
	AVSCode              string
	CVVCode              string
}

func (a AdditionalConnectorResponse) IsZero() bool {
	return a == AdditionalConnectorResponse{}
}

// AuthorizeRequest is the canonical input for the authorize flow.
type AuthorizeRequest struct {
	PaymentID         string
	MerchantReference string
	Amount            MinorUnit
	Currency          Currency
	PaymentMethod     PaymentMethodData
	CaptureMethod     CaptureMethod
	BillingAddress    *Address
	Email             string
	StatementDesc     string
	SetupFutureUsage  bool
	ReturnURL         string
}

type CaptureRequest struct {
	PaymentID              string
	ConnectorTransactionID string
	AmountToCapture        MinorUnit
	Currency               Currency
	MultipleCaptureID      string
}

type VoidRequest struct {
	PaymentID              string
	ConnectorTransactionID string
	CancellationReason     string
}

type RefundRequest struct {
	RefundID               string
	PaymentID              string
	ConnectorTransactionID string
	Amount                 MinorUnit
	Currency               Currency
	Reason                 string
}

// SyncRequest drives the payment status-sync flow. PendingCaptureIDs is
// populated for multi-capture reconciliation; connectors with an
// individual capture-sync method are called once per id.
type SyncRequest struct {
	PaymentID              string
	ConnectorTransactionID string
	Amount                 MinorUnit
	Currency               Currency
	CaptureMethod          CaptureMethod
	PaymentMethodKind      PaymentMethodKind
	PendingCaptureIDs      []string
}

type RefundSyncRequest struct {
	RefundID          string
	ConnectorRefundID string
	Amount            MinorUnit
	Currency          Currency
}

type SetupMandateRequest struct {
	PaymentID      string
	PaymentMethod  PaymentMethodData
	Currency       Currency
	BillingAddress *Address
	Email          string
}

type ConfirmRequest struct {
	PaymentID              string
	ConnectorTransactionID string
	Amount                 MinorUnit
	Currency               Currency
	PaymentMethod          PaymentMethodData
	CaptureMethod          CaptureMethod
}

// PaymentsResponse is the canonical success payload for payment flows.
type PaymentsResponse struct {
	ConnectorTransactionID string
	ResourceID             string
	AmountCaptured         *MinorUnit
	Currency               Currency
	MandateReference       *MandateReference
	ConnectorCustomerID    string
	RedirectURL            string
	Additional             *AdditionalConnectorResponse
}

type RefundResponse struct {
	ConnectorRefundID string
	RefundStatus      RefundStatus

	// Error carries the processor's decline details when RefundStatus
	// is a failure reported inside an otherwise well-formed payload.
	Error *ErrorResponse
}

// RouterData is the single envelope passed into and returned from every
// connector call. It is built once per external call, mutated in place
// by the transformer's response parser, and folded back into persisted
// state by the caller.
//
// Invariant: Status and the outcome are mutually consistent. A
// failure-class status means Error is set and Response is nil; a
// non-failure status means Error is nil. Use SetResponse and SetError,
// which enforce this.
type RouterData[Req any, Resp any] struct {
	Connector                  string
	MerchantConnectorAccountID string
	CredentialSetID            string
	Auth                       ConnectorAuth
	Request                    Req

	Status   AttemptStatus
	Response *Resp
	Error    *ErrorResponse

	ConnectorCustomerID  string
	PaymentMethodToken   Secret
	MandateReference     *MandateReference
	AccessToken          *AccessToken
	RawConnectorResponse []byte

	AmountCaptured   *MinorUnit
	CurrencyCaptured Currency

	// Integrity records the post-call amount reconciliation. A
	// discrepancy is evidence, not a verdict; it never fails the call.
	Integrity *IntegrityCheck
}

// IntegrityCheck compares what was requested against what the processor
// reports. Field names the first mismatching attribute.
type IntegrityCheck struct {
	Passed   bool
	Field    string
	Expected string
	Actual   string
}

// SetResponse records a successful outcome. Failure-class statuses are
// rejected: a decline travels through SetError.
func (r *RouterData[Req, Resp]) SetResponse(status AttemptStatus, response Resp) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if status.IsPaymentFailure() {
		return fmt.Errorf("core: cannot attach a success payload to failure status %q", string(status))
	}
	r.Status = status
	r.Response = &response
	r.Error = nil
	return nil
}

// SetError records a failure outcome with a failure-class status and a
// backfilled ErrorResponse.
func (r *RouterData[Req, Resp]) SetError(status AttemptStatus, errResp ErrorResponse) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if !status.IsPaymentFailure() {
		return fmt.Errorf("core: cannot attach an error outcome to non-failure status %q", string(status))
	}
	backfilled := errResp.Backfill()
	r.Status = status
	r.Response = nil
	r.Error = &backfilled
	return nil
}

func (r *RouterData[Req, Resp]) Validate() error {
	if normalizeID(r.Connector) == "" {
		return fmt.Errorf("core: connector id is required")
	}
	if r.Status != "" {
		if err := r.Status.Validate(); err != nil {
			return err
		}
	}
	if r.Status.IsPaymentFailure() {
		if r.Error == nil {
			return fmt.Errorf("core: failure status %q without an error outcome", string(r.Status))
		}
		if r.Response != nil {
			return fmt.Errorf("core: failure status %q with a success payload", string(r.Status))
		}
		return nil
	}
	if r.Error != nil {
		return fmt.Errorf("core: non-failure status %q with an error outcome", string(r.Status))
	}
	return nil
}

// Connector is the base contract every processor integration satisfies.
// Flow support is expressed through the optional flow interfaces below;
// the orchestrator type-asserts for the flow it is executing.
type Connector interface {
	ID() string
	BaseURL() string
	AmountRepresentation() AmountRepresentation
	CaptureSyncMethod() CaptureSyncMethod
}

// WireRequest is the processor-specific outbound call a request builder
// produces: method, path relative to the connector base URL, headers
// including processor auth, and an encoded body.
type WireRequest struct {
	Method      string
	Path        string
	Headers     map[string]string
	Body        []byte
	ContentType string
}

// WireResponse is the processor's raw reply handed to a response parser.
// Headers carry one value per key; rate-limit hints are read from them.
type WireResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

type PaymentAuthorizer interface {
	BuildAuthorizeRequest(data *RouterData[AuthorizeRequest, PaymentsResponse]) (WireRequest, error)
	ParseAuthorizeResponse(data *RouterData[AuthorizeRequest, PaymentsResponse], res WireResponse) error
}

type PaymentCapturer interface {
	BuildCaptureRequest(data *RouterData[CaptureRequest, PaymentsResponse]) (WireRequest, error)
	ParseCaptureResponse(data *RouterData[CaptureRequest, PaymentsResponse], res WireResponse) error
}

type PaymentVoider interface {
	BuildVoidRequest(data *RouterData[VoidRequest, PaymentsResponse]) (WireRequest, error)
	ParseVoidResponse(data *RouterData[VoidRequest, PaymentsResponse], res WireResponse) error
}

type RefundExecutor interface {
	BuildRefundRequest(data *RouterData[RefundRequest, RefundResponse]) (WireRequest, error)
	ParseRefundResponse(data *RouterData[RefundRequest, RefundResponse], res WireResponse) error
}

// PaymentSyncer reconciles payment status by polling. SupportsSync is
// the pre-dispatch validation: when it returns false the orchestrator
// skips the network call entirely and leaves prior state untouched.
type PaymentSyncer interface {
	SupportsSync(req SyncRequest) bool
	BuildSyncRequest(data *RouterData[SyncRequest, PaymentsResponse], captureID string) (WireRequest, error)
	ParseSyncResponse(data *RouterData[SyncRequest, PaymentsResponse], res WireResponse) error
}

type RefundSyncer interface {
	BuildRefundSyncRequest(data *RouterData[RefundSyncRequest, RefundResponse]) (WireRequest, error)
	ParseRefundSyncResponse(data *RouterData[RefundSyncRequest, RefundResponse], res WireResponse) error
}

type MandateSetup interface {
	BuildSetupMandateRequest(data *RouterData[SetupMandateRequest, PaymentsResponse]) (WireRequest, error)
	ParseSetupMandateResponse(data *RouterData[SetupMandateRequest, PaymentsResponse], res WireResponse) error
}

type PaymentConfirmer interface {
	BuildConfirmRequest(data *RouterData[ConfirmRequest, PaymentsResponse]) (WireRequest, error)
	ParseConfirmResponse(data *RouterData[ConfirmRequest, PaymentsResponse], res WireResponse) error
}

// WebhookTranslator converts a processor push event into the canonical
// sync response shape so push and pull share downstream logic.
type WebhookTranslator interface {
	TranslateWebhook(payload []byte) (WebhookEvent, error)
}

// WebhookEvent is the processor-agnostic view of an inbound event
// envelope.
type WebhookEvent struct {
	EventType   string
	ReferenceID string
	Status      AttemptStatus
	RawPayload  []byte
}

// AccessToken is a processor bearer credential with its lifetime.
type AccessToken struct {
	Token     Secret
	ExpiresIn time.Duration
	CreatedAt time.Time
}

func (t AccessToken) IsExpired(now time.Time) bool {
	if t.ExpiresIn <= 0 {
		return false
	}
	return !t.CreatedAt.Add(t.ExpiresIn).After(now)
}

// AccessTokenAuthenticator is implemented by connectors that front their
// API with a short-lived bearer token exchanged from the merchant
// credential. The orchestrator consults the token store first and only
// performs the exchange on a miss or an expired entry.
type AccessTokenAuthenticator interface {
	BuildAccessTokenRequest(auth ConnectorAuth) (WireRequest, error)
	ParseAccessTokenResponse(res WireResponse) (AccessToken, error)
}

// AccessTokenKey identifies a cached token: connector plus the merchant
// connector account, with an optional credential-set discriminator for
// accounts carrying several credential sets.
type AccessTokenKey struct {
	Connector                  string
	MerchantConnectorAccountID string
	CredentialSetID            string
}

// AccessTokenStore is the injected token cache. Implementations must not
// let writers block readers of unrelated keys.
type AccessTokenStore interface {
	Get(ctx context.Context, key AccessTokenKey) (AccessToken, bool, error)
	Put(ctx context.Context, key AccessTokenKey, token AccessToken) error
	Delete(ctx context.Context, key AccessTokenKey) error
}

// Registry is the connector lookup used by the orchestrator.
type Registry interface {
	Register(connector Connector) error
	Get(connectorID string) (Connector, bool)
	List() []Connector
}
