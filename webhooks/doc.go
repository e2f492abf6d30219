// Package webhooks turns processor push events into the same canonical
// status updates the polling path produces.
//
// An inbound delivery is verified, translated by the owning connector,
// deduplicated, and then either applied directly to a sync envelope or
// replayed through the orchestrator with the stored payload. Push and
// pull share every step after translation.
package webhooks
