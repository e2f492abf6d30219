// Package payments is the composition root: it re-exports the core
// contracts and wires the service, orchestrator, webhook processor, and
// command/query handlers into one facade.
package payments

import "github.com/goliatone/go-payments/core"

type Config = core.Config

type UCSConfig = core.UCSConfig

type Option = core.Option

type Service = core.Service

type Connector = core.Connector

type ConnectorAuth = core.ConnectorAuth

type AccessToken = core.AccessToken

type AccessTokenKey = core.AccessTokenKey

type AccessTokenStore = core.AccessTokenStore

type Registry = core.Registry

type Secret = core.Secret

type MinorUnit = core.MinorUnit

type Currency = core.Currency

type Flow = core.Flow

type AttemptStatus = core.AttemptStatus

type RefundStatus = core.RefundStatus

type PaymentMethodData = core.PaymentMethodData

type WebhookEvent = core.WebhookEvent

var (
	DefaultConfig = core.DefaultConfig
	NewSecret     = core.NewSecret

	WithLogger           = core.WithLogger
	WithLoggerProvider   = core.WithLoggerProvider
	WithMetricsRecorder  = core.WithMetricsRecorder
	WithErrorMapper      = core.WithErrorMapper
	WithConfigProvider   = core.WithConfigProvider
	WithOptionsResolver  = core.WithOptionsResolver
	WithRegistry         = core.WithRegistry
	WithAccessTokenStore = core.WithAccessTokenStore
)
