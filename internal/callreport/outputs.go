package callreport

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Output is one named field extracted by the provider's post-call analysis.
// Result is any JSON value; typed lookups coerce on read.
type Output struct {
	Name   string          `json:"name"`
	Result json.RawMessage `json:"result"`
}

// Outputs is the flattened, ordered form of the provider's structured-output
// payload. It exists only for the scope of one webhook event.
type Outputs []Output

// FlattenOutputs normalizes the provider's structuredOutputs payload, which
// arrives either as an ordered array of {name, result} entries or as a
// mapping from an opaque ID to the same entry shape. Absent or malformed
// input yields an empty slice; this never fails.
func FlattenOutputs(raw json.RawMessage) Outputs {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var seq []Output
	if err := json.Unmarshal(raw, &seq); err == nil {
		return seq
	}

	var keyed map[string]Output
	if err := json.Unmarshal(raw, &keyed); err == nil {
		// Key order is opaque; sort for a stable sequence. Lookup results do
		// not depend on order as long as names are distinct.
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(Outputs, 0, len(keys))
		for _, k := range keys {
			out = append(out, keyed[k])
		}
		return out
	}

	return nil
}

// lookup finds the first entry whose name matches case-insensitively.
// Entries with null results count as not found.
func (o Outputs) lookup(name string) (json.RawMessage, bool) {
	for _, e := range o {
		if strings.EqualFold(e.Name, name) {
			r := bytes.TrimSpace(e.Result)
			if len(r) == 0 || bytes.Equal(r, []byte("null")) {
				return nil, false
			}
			return r, true
		}
	}
	return nil, false
}

// String reads a field coerced to text: strings pass through, numbers are
// formatted, booleans become "true"/"false".
func (o Outputs) String(name string) (string, bool) {
	raw, ok := o.lookup(name)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}

// Bool reads a field coerced to a boolean; string "true"/"false" is accepted.
// An explicit false is reported as found so it is never overwritten by a
// downstream default.
func (o Outputs) Bool(name string) (bool, bool) {
	raw, ok := o.lookup(name)
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(s))); err == nil {
			return parsed, true
		}
	}
	return false, false
}

// Int reads a field coerced to an integer; JSON numbers are truncated and
// numeric strings parsed.
func (o Outputs) Int(name string) (int, bool) {
	raw, ok := o.lookup(name)
	if !ok {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
