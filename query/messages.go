package query

import "strings"

const (
	TypeListConnectors           = "payments.query.connector.list"
	TypeGetConnectorCapabilities = "payments.query.connector.capabilities"
	TypeGetAccessTokenState      = "payments.query.access_token.state"
)

type ListConnectorsMessage struct{}

func (ListConnectorsMessage) Type() string { return TypeListConnectors }

func (ListConnectorsMessage) Validate() error { return nil }

type GetConnectorCapabilitiesMessage struct {
	ConnectorID string
}

func (GetConnectorCapabilitiesMessage) Type() string { return TypeGetConnectorCapabilities }

func (m GetConnectorCapabilitiesMessage) Validate() error {
	if strings.TrimSpace(m.ConnectorID) == "" {
		return queryValidationError("connector_id", "connector id is required")
	}
	return nil
}

type GetAccessTokenStateMessage struct {
	ConnectorID                string
	MerchantConnectorAccountID string
	CredentialSetID            string
}

func (GetAccessTokenStateMessage) Type() string { return TypeGetAccessTokenState }

func (m GetAccessTokenStateMessage) Validate() error {
	if strings.TrimSpace(m.ConnectorID) == "" {
		return queryValidationError("connector_id", "connector id is required")
	}
	if strings.TrimSpace(m.MerchantConnectorAccountID) == "" {
		return queryValidationError("merchant_connector_account_id", "merchant connector account id is required")
	}
	return nil
}
