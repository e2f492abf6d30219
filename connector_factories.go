package payments

import (
	"github.com/goliatone/go-payments/connectors/authorizenet"
	"github.com/goliatone/go-payments/connectors/checkout"
	"github.com/goliatone/go-payments/connectors/globalpay"
	"github.com/goliatone/go-payments/core"
)

func CheckoutConnector(cfg checkout.Config) core.Connector {
	return checkout.New(cfg)
}

func AuthorizeNetConnector(cfg authorizenet.Config) core.Connector {
	return authorizenet.New(cfg)
}

func GlobalPayConnector(cfg globalpay.Config) core.Connector {
	return globalpay.New(cfg)
}

// DefaultConnectors builds the built-in processor set with default
// endpoints.
func DefaultConnectors() []core.Connector {
	return []core.Connector{
		CheckoutConnector(checkout.Config{}),
		AuthorizeNetConnector(authorizenet.Config{}),
		GlobalPayConnector(globalpay.Config{}),
	}
}
