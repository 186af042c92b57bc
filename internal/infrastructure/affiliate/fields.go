package affiliate

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Price decodes a price sent either as a JSON number or as a string such as
// "80.00", "$45.00" or "1.299,00". Anything unparsable decodes to 0 and leaves
// Valid false instead of failing the whole payload.
type Price struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Price) UnmarshalJSON(data []byte) error {
	*p = Price{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = Price{Value: n, Valid: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, ok := ParsePrice(s); ok {
			*p = Price{Value: v, Valid: true}
		}
	}
	return nil
}

// Ptr returns the price as a pointer, nil when absent
func (p Price) Ptr() *float64 {
	if !p.Valid {
		return nil
	}
	v := p.Value
	return &v
}

// ParsePrice extracts a number from a display price string
func ParsePrice(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastComma > lastDot && len(cleaned)-lastComma-1 != 3:
		// decimal comma: "1.299,00" or "45,5"
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Text decodes a JSON string, number or null into a string, so an upstream
// that sends an id as a number does not break decoding.
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Text(n.String())
	}
	return nil
}

// String returns the decoded text
func (t Text) String() string {
	return string(t)
}

// decodeList decodes raw into a slice of T. A missing field or a value that
// is not an array decodes to an empty list. Elements of the wrong shape are
// dropped individually.
func decodeList[T any](raw json.RawMessage) []T {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}

	out := make([]T, 0, len(elems))
	for _, elem := range elems {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
