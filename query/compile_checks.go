package query

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Querier[ListConnectorsMessage, []string]                        = (*ListConnectorsQuery)(nil)
	_ gocmd.Querier[GetConnectorCapabilitiesMessage, ConnectorCapabilities] = (*GetConnectorCapabilitiesQuery)(nil)
	_ gocmd.Querier[GetAccessTokenStateMessage, AccessTokenState]           = (*GetAccessTokenStateQuery)(nil)
)
