package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type ConnectorRegistry struct {
	mu         sync.RWMutex
	connectors map[string]Connector
}

func NewConnectorRegistry() *ConnectorRegistry {
	return &ConnectorRegistry{connectors: make(map[string]Connector)}
}

func (r *ConnectorRegistry) Register(connector Connector) error {
	if connector == nil {
		return fmt.Errorf("core: connector is nil")
	}
	id := strings.TrimSpace(connector.ID())
	if id == "" {
		return fmt.Errorf("core: connector id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.connectors[id]; exists {
		return fmt.Errorf("core: connector already registered: %s", id)
	}
	r.connectors[id] = connector
	return nil
}

func (r *ConnectorRegistry) Get(connectorID string) (Connector, bool) {
	id := strings.TrimSpace(connectorID)
	if id == "" {
		return nil, false
	}
	r.mu.RLock()
	connector, ok := r.connectors[id]
	r.mu.RUnlock()
	return connector, ok
}

func (r *ConnectorRegistry) List() []Connector {
	r.mu.RLock()
	keys := make([]string, 0, len(r.connectors))
	for id := range r.connectors {
		keys = append(keys, id)
	}
	connectors := make(map[string]Connector, len(r.connectors))
	for id, connector := range r.connectors {
		connectors[id] = connector
	}
	r.mu.RUnlock()

	sort.Strings(keys)
	out := make([]Connector, 0, len(keys))
	for _, id := range keys {
		out = append(out, connectors[id])
	}
	return out
}

var _ Registry = (*ConnectorRegistry)(nil)
