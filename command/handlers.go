package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-payments/core"
	"github.com/goliatone/go-payments/orchestration"
)

// Orchestrating is the slice of the flow orchestrator the command
// handlers drive. Results land on the message's own envelope; sync
// additionally reports its reconciliation outcome through the
// go-command result collector.
type Orchestrating interface {
	Authorize(ctx context.Context, data *core.RouterData[core.AuthorizeRequest, core.PaymentsResponse]) error
	Capture(ctx context.Context, data *core.RouterData[core.CaptureRequest, core.PaymentsResponse]) error
	Void(ctx context.Context, data *core.RouterData[core.VoidRequest, core.PaymentsResponse]) error
	Refund(ctx context.Context, data *core.RouterData[core.RefundRequest, core.RefundResponse]) error
	SetupMandate(ctx context.Context, data *core.RouterData[core.SetupMandateRequest, core.PaymentsResponse]) error
	Confirm(ctx context.Context, data *core.RouterData[core.ConfirmRequest, core.PaymentsResponse]) error
	SyncPayment(ctx context.Context, data *core.RouterData[core.SyncRequest, core.PaymentsResponse], options ...orchestration.SyncOption) (orchestration.SyncResult, error)
	SyncRefund(ctx context.Context, data *core.RouterData[core.RefundSyncRequest, core.RefundResponse]) error
}

var _ Orchestrating = (*orchestration.Orchestrator)(nil)

type AuthorizeCommand struct {
	orchestrator Orchestrating
}

func NewAuthorizeCommand(orchestrator Orchestrating) *AuthorizeCommand {
	return &AuthorizeCommand{orchestrator: orchestrator}
}

func (c *AuthorizeCommand) Execute(ctx context.Context, msg AuthorizeMessage) error {
	if c == nil || c.orchestrator == nil {
		return commandDependencyError("command: authorize orchestrator is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.orchestrator.Authorize(ctx, msg.Data)
}

type CaptureCommand struct {
	orchestrator Orchestrating
}

func NewCaptureCommand(orchestrator Orchestrating) *CaptureCommand {
	return &CaptureCommand{orchestrator: orchestrator}
}

func (c *CaptureCommand) Execute(ctx context.Context, msg CaptureMessage) error {
	if c == nil || c.orchestrator == nil {
		return commandDependencyError("command: capture orchestrator is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.orchestrator.Capture(ctx, msg.Data)
}

type VoidCommand struct {
	orchestrator Orchestrating
}

func NewVoidCommand(orchestrator Orchestrating) *VoidCommand {
	return &VoidCommand{orchestrator: orchestrator}
}

func (c *VoidCommand) Execute(ctx context.Context, msg VoidMessage) error {
	if c == nil || c.orchestrator == nil {
		return commandDependencyError("command: void orchestrator is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.orchestrator.Void(ctx, msg.Data)
}

type RefundCommand struct {
	orchestrator Orchestrating
}

func NewRefundCommand(orchestrator Orchestrating) *RefundCommand {
	return &RefundCommand{orchestrator: orchestrator}
}

func (c *RefundCommand) Execute(ctx context.Context, msg RefundMessage) error {
	if c == nil || c.orchestrator == nil {
		return commandDependencyError("command: refund orchestrator is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.orchestrator.Refund(ctx, msg.Data)
}

type SetupMandateCommand struct {
	orchestrator Orchestrating
}

func NewSetupMandateCommand(orchestrator Orchestrating) *SetupMandateCommand {
	return &SetupMandateCommand{orchestrator: orchestrator}
}

func (c *SetupMandateCommand) Execute(ctx context.Context, msg SetupMandateMessage) error {
	if c == nil || c.orchestrator == nil {
		return commandDependencyError("command: mandate orchestrator is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.orchestrator.SetupMandate(ctx, msg.Data)
}

type ConfirmCommand struct {
	orchestrator Orchestrating
}

func NewConfirmCommand(orchestrator Orchestrating) *ConfirmCommand {
	return &ConfirmCommand{orchestrator: orchestrator}
}

func (c *ConfirmCommand) Execute(ctx context.Context, msg ConfirmMessage) error {
	if c == nil || c.orchestrator == nil {
		return commandDependencyError("command: confirm orchestrator is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.orchestrator.Confirm(ctx, msg.Data)
}

type SyncPaymentCommand struct {
	orchestrator Orchestrating
}

func NewSyncPaymentCommand(orchestrator Orchestrating) *SyncPaymentCommand {
	return &SyncPaymentCommand{orchestrator: orchestrator}
}

func (c *SyncPaymentCommand) Execute(ctx context.Context, msg SyncPaymentMessage) error {
	if c == nil || c.orchestrator == nil {
		return commandDependencyError("command: sync orchestrator is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.orchestrator.SyncPayment(ctx, msg.Data)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SyncRefundCommand struct {
	orchestrator Orchestrating
}

func NewSyncRefundCommand(orchestrator Orchestrating) *SyncRefundCommand {
	return &SyncRefundCommand{orchestrator: orchestrator}
}

func (c *SyncRefundCommand) Execute(ctx context.Context, msg SyncRefundMessage) error {
	if c == nil || c.orchestrator == nil {
		return commandDependencyError("command: refund sync orchestrator is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.orchestrator.SyncRefund(ctx, msg.Data)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
