package core

import "encoding/json"

// Secret wraps a value that must never appear in logs, debug output, or
// serialized diagnostics: card numbers, CVV codes, API keys, tokens.
// It is an anti-accidental-leak boundary, not an encryption boundary;
// callers that genuinely need the raw value call Expose.
type Secret struct {
	value string
}

func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Expose returns the wrapped value. Call sites are the audit surface for
// where sensitive material leaves the masked boundary.
func (s Secret) Expose() string {
	return s.value
}

func (s Secret) IsEmpty() bool {
	return s.value == ""
}

func (s Secret) String() string {
	return RedactedValue
}

func (s Secret) GoString() string {
	return "core.Secret{value:" + RedactedValue + "}"
}

// MarshalJSON emits the redaction sentinel so encoding a canonical
// struct for diagnostics can never leak the wrapped value.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + RedactedValue + `"`), nil
}

func (s *Secret) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		s.value = ""
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == RedactedValue {
		raw = ""
	}
	s.value = raw
	return nil
}
