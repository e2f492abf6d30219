package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// Service bundles the shared runtime dependencies of the switch:
// resolved configuration, connector registry, access-token cache,
// logging, metrics, and the error mapper. The orchestration layer is
// built on top of one Service instance.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	registry        Registry
	tokenStore      AccessTokenStore
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("payments", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("payments"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = PaymentErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewConnectorRegistry()
	}
	if builder.tokenStore == nil {
		builder.tokenStore = NewMemoryAccessTokenStore()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, builder.errorMapper(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, builder.errorMapper(err)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		registry:        builder.registry,
		tokenStore:      builder.tokenStore,
	}, nil
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Logger() Logger {
	if s == nil {
		return nil
	}
	return s.logger
}

func (s *Service) Metrics() MetricsRecorder {
	if s == nil {
		return NopMetricsRecorder{}
	}
	return s.metricsRecorder
}

func (s *Service) Registry() Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

func (s *Service) AccessTokens() AccessTokenStore {
	if s == nil {
		return nil
	}
	return s.tokenStore
}

// MapError funnels any error through the configured payment error
// mapper so callers always see the go-errors envelope.
func (s *Service) MapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return PaymentErrorMapper(err)
	}
	if mapped := s.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

// RegisterConnector adds a connector to the service registry.
func (s *Service) RegisterConnector(connector Connector) error {
	if s == nil || s.registry == nil {
		return PaymentErrorMapper(errConnectorRegistryMissing)
	}
	return s.MapError(s.registry.Register(connector))
}
