package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[AuthorizeMessage]    = (*AuthorizeCommand)(nil)
	_ gocmd.Commander[CaptureMessage]      = (*CaptureCommand)(nil)
	_ gocmd.Commander[VoidMessage]         = (*VoidCommand)(nil)
	_ gocmd.Commander[RefundMessage]       = (*RefundCommand)(nil)
	_ gocmd.Commander[SetupMandateMessage] = (*SetupMandateCommand)(nil)
	_ gocmd.Commander[ConfirmMessage]      = (*ConfirmCommand)(nil)
	_ gocmd.Commander[SyncPaymentMessage]  = (*SyncPaymentCommand)(nil)
	_ gocmd.Commander[SyncRefundMessage]   = (*SyncRefundCommand)(nil)
)
