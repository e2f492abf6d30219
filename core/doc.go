// Package core holds the canonical payment model shared by every
// connector integration: money and identifier types, the attempt and
// refund state machines, the unified error taxonomy, the RouterData
// envelope, and the contracts a connector transformer implements.
package core
