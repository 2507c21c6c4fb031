package orders

import (
	"encoding/json"
	"strings"
)

// payloadMarker introduces the structured order block the generation
// service appends to a reply when the customer confirms an order.
const payloadMarker = `{"order_details":`

type payloadEnvelope struct {
	OrderDetails *Payload `json:"order_details"`
}

// ExtractPayload scans reply text for a trailing order block and splits it
// from the conversational text. It returns the payload (nil when absent or
// malformed) and the text to send to the customer. A malformed block is
// never surfaced to the customer as an error; the original text is returned
// unchanged so the conversation can continue.
func ExtractPayload(text string) (*Payload, string) {
	idx := strings.LastIndex(text, payloadMarker)
	if idx < 0 {
		return nil, text
	}

	end, ok := matchBraces(text, idx)
	if !ok {
		return nil, text
	}

	var envelope payloadEnvelope
	if err := json.Unmarshal([]byte(text[idx:end]), &envelope); err != nil || envelope.OrderDetails == nil {
		return nil, text
	}

	clean := strings.TrimSpace(text[:idx] + text[end:])
	return envelope.OrderDetails, clean
}

// matchBraces returns the index just past the brace that closes the block
// opening at start. Braces inside JSON string literals are ignored.
func matchBraces(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
