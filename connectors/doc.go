// Package connectors holds the helpers every processor transformer
// shares: merchant reference truncation with a random fallback, billing
// address-line composition under a character budget, and wire-request
// assembly. Each processor integration lives in its own sub-package and
// implements the flow interfaces declared in core.
package connectors
