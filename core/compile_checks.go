package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Registry         = (*ConnectorRegistry)(nil)
	_ AccessTokenStore = (*MemoryAccessTokenStore)(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
