package command

import (
	"strings"

	"github.com/goliatone/go-payments/core"
)

const (
	TypeAuthorize    = "payments.command.authorize"
	TypeCapture      = "payments.command.capture"
	TypeVoid         = "payments.command.void"
	TypeRefund       = "payments.command.refund"
	TypeSetupMandate = "payments.command.mandate.setup"
	TypeConfirm      = "payments.command.confirm"
	TypeSyncPayment  = "payments.command.payment.sync"
	TypeSyncRefund   = "payments.command.refund.sync"
)

type AuthorizeMessage struct {
	Data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]
}

func (AuthorizeMessage) Type() string { return TypeAuthorize }

func (m AuthorizeMessage) Validate() error {
	if err := validateEnvelope(m.Data); err != nil {
		return err
	}
	if strings.TrimSpace(m.Data.Request.PaymentID) == "" {
		return commandValidationError("payment_id", "payment id is required")
	}
	if m.Data.Request.Amount <= 0 {
		return commandValidationError("amount", "amount must be positive")
	}
	if m.Data.Request.Currency == "" {
		return commandValidationError("currency", "currency is required")
	}
	if err := m.Data.Request.PaymentMethod.Validate(); err != nil {
		return commandValidationError("payment_method", err.Error())
	}
	return nil
}

type CaptureMessage struct {
	Data *core.RouterData[core.CaptureRequest, core.PaymentsResponse]
}

func (CaptureMessage) Type() string { return TypeCapture }

func (m CaptureMessage) Validate() error {
	if err := validateEnvelope(m.Data); err != nil {
		return err
	}
	if strings.TrimSpace(m.Data.Request.ConnectorTransactionID) == "" {
		return commandValidationError("connector_transaction_id", "connector transaction id is required")
	}
	if m.Data.Request.AmountToCapture <= 0 {
		return commandValidationError("amount_to_capture", "capture amount must be positive")
	}
	return nil
}

type VoidMessage struct {
	Data *core.RouterData[core.VoidRequest, core.PaymentsResponse]
}

func (VoidMessage) Type() string { return TypeVoid }

func (m VoidMessage) Validate() error {
	if err := validateEnvelope(m.Data); err != nil {
		return err
	}
	if strings.TrimSpace(m.Data.Request.ConnectorTransactionID) == "" {
		return commandValidationError("connector_transaction_id", "connector transaction id is required")
	}
	return nil
}

type RefundMessage struct {
	Data *core.RouterData[core.RefundRequest, core.RefundResponse]
}

func (RefundMessage) Type() string { return TypeRefund }

func (m RefundMessage) Validate() error {
	if err := validateEnvelope(m.Data); err != nil {
		return err
	}
	if strings.TrimSpace(m.Data.Request.RefundID) == "" {
		return commandValidationError("refund_id", "refund id is required")
	}
	if strings.TrimSpace(m.Data.Request.ConnectorTransactionID) == "" {
		return commandValidationError("connector_transaction_id", "connector transaction id is required")
	}
	if m.Data.Request.Amount <= 0 {
		return commandValidationError("amount", "refund amount must be positive")
	}
	return nil
}

type SetupMandateMessage struct {
	Data *core.RouterData[core.SetupMandateRequest, core.PaymentsResponse]
}

func (SetupMandateMessage) Type() string { return TypeSetupMandate }

func (m SetupMandateMessage) Validate() error {
	if err := validateEnvelope(m.Data); err != nil {
		return err
	}
	if strings.TrimSpace(m.Data.Request.PaymentID) == "" {
		return commandValidationError("payment_id", "payment id is required")
	}
	if err := m.Data.Request.PaymentMethod.Validate(); err != nil {
		return commandValidationError("payment_method", err.Error())
	}
	return nil
}

type ConfirmMessage struct {
	Data *core.RouterData[core.ConfirmRequest, core.PaymentsResponse]
}

func (ConfirmMessage) Type() string { return TypeConfirm }

func (m ConfirmMessage) Validate() error {
	if err := validateEnvelope(m.Data); err != nil {
		return err
	}
	if strings.TrimSpace(m.Data.Request.PaymentID) == "" {
		return commandValidationError("payment_id", "payment id is required")
	}
	if m.Data.Request.Amount <= 0 {
		return commandValidationError("amount", "amount must be positive")
	}
	return nil
}

type SyncPaymentMessage struct {
	Data *core.RouterData[core.SyncRequest, core.PaymentsResponse]
}

func (SyncPaymentMessage) Type() string { return TypeSyncPayment }

func (m SyncPaymentMessage) Validate() error {
	if err := validateEnvelope(m.Data); err != nil {
		return err
	}
	if strings.TrimSpace(m.Data.Request.PaymentID) == "" {
		return commandValidationError("payment_id", "payment id is required")
	}
	return nil
}

type SyncRefundMessage struct {
	Data *core.RouterData[core.RefundSyncRequest, core.RefundResponse]
}

func (SyncRefundMessage) Type() string { return TypeSyncRefund }

func (m SyncRefundMessage) Validate() error {
	if err := validateEnvelope(m.Data); err != nil {
		return err
	}
	if strings.TrimSpace(m.Data.Request.ConnectorRefundID) == "" {
		return commandValidationError("connector_refund_id", "connector refund id is required")
	}
	return nil
}

func validateEnvelope[Req any, Resp any](data *core.RouterData[Req, Resp]) error {
	if data == nil {
		return commandValidationError("data", "router data envelope is required")
	}
	if strings.TrimSpace(data.Connector) == "" {
		return commandValidationError("connector", "connector is required")
	}
	return nil
}
