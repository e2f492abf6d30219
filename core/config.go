package core

import (
	"fmt"
	"strings"
)

// UCSConfig is the rollout switch for the unified connector service
// gateway path: when a connector/flow pair is listed, dispatch goes
// through the gateway instead of the processor's own endpoint.
type UCSConfig struct {
	Enabled    bool     `koanf:"enabled" mapstructure:"enabled"`
	BaseURL    string   `koanf:"base_url" mapstructure:"base_url"`
	Connectors []string `koanf:"connectors" mapstructure:"connectors"`
	Flows      []string `koanf:"flows" mapstructure:"flows"`
}

type Config struct {
	ServiceName string    `koanf:"service_name" mapstructure:"service_name"`
	UCS         UCSConfig `koanf:"ucs" mapstructure:"ucs"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "payments",
		UCS:         UCSConfig{},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.UCS.Enabled && strings.TrimSpace(c.UCS.BaseURL) == "" {
		return fmt.Errorf("core: ucs.base_url is required when ucs is enabled")
	}
	return nil
}

// UCSEnabledFor reports whether the gateway path is active for the
// connector/flow pair. An empty connector or flow list means "all".
func (c Config) UCSEnabledFor(connectorID string, flow Flow) bool {
	if !c.UCS.Enabled {
		return false
	}
	if !listMatches(c.UCS.Connectors, connectorID) {
		return false
	}
	return listMatches(c.UCS.Flows, string(flow))
}

func listMatches(list []string, value string) bool {
	if len(list) == 0 {
		return true
	}
	value = strings.TrimSpace(strings.ToLower(value))
	for _, item := range list {
		if strings.TrimSpace(strings.ToLower(item)) == value {
			return true
		}
	}
	return false
}
