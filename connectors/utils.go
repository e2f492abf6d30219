package connectors

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-payments/core"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// SafeReference returns a merchant reference that fits the processor's
// length cap. References over the cap never reach the wire verbatim: a
// generated alphanumeric id of exactly maxLength is substituted.
func SafeReference(reference string, maxLength int) string {
	reference = strings.TrimSpace(reference)
	if maxLength <= 0 {
		return reference
	}
	if reference != "" && len(reference) <= maxLength {
		return reference
	}
	return randomReference(maxLength)
}

// randomReference derives an alphanumeric id of the requested length
// from stacked UUIDs, so fallbacks for distinct calls do not collide.
func randomReference(length int) string {
	var builder strings.Builder
	builder.Grow(length)
	for builder.Len() < length {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		remaining := length - builder.Len()
		if remaining < len(raw) {
			raw = raw[:remaining]
		}
		builder.WriteString(raw)
	}
	return builder.String()
}

// CombineAddressLines picks the longest prefix combination of
// line1/line2/line3 that stays within budget characters, separated by
// single spaces. When even the two-line form overflows, line1 alone is
// returned regardless of budget.
func CombineAddressLines(address core.Address, budget int) string {
	line1 := strings.TrimSpace(address.Line1)
	line2 := strings.TrimSpace(address.Line2)
	line3 := strings.TrimSpace(address.Line3)

	join := func(parts ...string) string {
		kept := parts[:0]
		for _, part := range parts {
			if part != "" {
				kept = append(kept, part)
			}
		}
		return strings.Join(kept, " ")
	}

	if combined := join(line1, line2, line3); combined != "" && len(combined) <= budget {
		return combined
	}
	if combined := join(line1, line2); combined != "" && len(combined) <= budget {
		return combined
	}
	return line1
}

// NewJSONRequest encodes body as JSON and assembles the wire request.
func NewJSONRequest(connector string, method string, path string, headers map[string]string, body any) (core.WireRequest, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return core.WireRequest{}, core.RequestEncodingError(connector, err)
	}
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = ContentTypeJSON
	return core.WireRequest{
		Method:      method,
		Path:        path,
		Headers:     headers,
		Body:        encoded,
		ContentType: ContentTypeJSON,
	}, nil
}

// DecodeResponse parses a wire response body, mapping any decode
// failure to the structural deserialization error that aborts the flow.
func DecodeResponse[T any](connector string, res core.WireResponse) (T, error) {
	var decoded T
	if err := json.Unmarshal(res.Body, &decoded); err != nil {
		return decoded, core.ResponseDeserializationError(connector, err)
	}
	return decoded, nil
}
