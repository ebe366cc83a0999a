package callreport

import (
	"encoding/json"
	"testing"
)

func TestFlattenOutputs_SequenceAndMappingAgree(t *testing.T) {
	seq := json.RawMessage(`[
		{"name": "Customer Sentiment", "result": "positive"},
		{"name": "Feedback Score", "result": 8},
		{"name": "Callback", "result": false}
	]`)
	keyed := json.RawMessage(`{
		"b2": {"name": "Feedback Score", "result": 8},
		"a1": {"name": "Customer Sentiment", "result": "positive"},
		"c3": {"name": "Callback", "result": false}
	}`)

	fromSeq := FlattenOutputs(seq)
	fromMap := FlattenOutputs(keyed)
	if len(fromSeq) != 3 || len(fromMap) != 3 {
		t.Fatalf("expected 3 entries each, got %d and %d", len(fromSeq), len(fromMap))
	}

	for _, name := range []string{"Customer Sentiment", "Feedback Score", "Callback"} {
		a, aok := fromSeq.String(name)
		b, bok := fromMap.String(name)
		if aok != bok || a != b {
			t.Fatalf("lookup %q diverged: seq=(%q,%v) map=(%q,%v)", name, a, aok, b, bok)
		}
	}
}

func TestFlattenOutputs_MalformedYieldsEmpty(t *testing.T) {
	cases := []json.RawMessage{
		nil,
		json.RawMessage(`null`),
		json.RawMessage(`"not a collection"`),
		json.RawMessage(`42`),
		json.RawMessage(`{broken`),
	}
	for _, raw := range cases {
		if got := FlattenOutputs(raw); len(got) != 0 {
			t.Fatalf("expected empty outputs for %q, got %d entries", raw, len(got))
		}
	}
}

func TestOutputs_LookupIsCaseInsensitiveFirstMatch(t *testing.T) {
	o := FlattenOutputs(json.RawMessage(`[
		{"name": "customer name", "result": "Ada"},
		{"name": "Customer Name", "result": "Grace"}
	]`))

	v, ok := o.String("CUSTOMER NAME")
	if !ok || v != "Ada" {
		t.Fatalf("expected first match Ada, got %q found=%v", v, ok)
	}
}

func TestOutputs_NullResultCountsAsNotFound(t *testing.T) {
	o := FlattenOutputs(json.RawMessage(`[{"name": "Rating", "result": null}]`))
	if _, ok := o.String("Rating"); ok {
		t.Fatalf("expected null result to be treated as not found")
	}
}

func TestOutputs_StringCoercesNumbersAndBooleans(t *testing.T) {
	o := FlattenOutputs(json.RawMessage(`[
		{"name": "Rating", "result": 4},
		{"name": "Feedback Score", "result": 8.5},
		{"name": "Callback", "result": true}
	]`))

	if v, ok := o.String("Rating"); !ok || v != "4" {
		t.Fatalf("expected rating \"4\", got %q found=%v", v, ok)
	}
	if v, ok := o.String("Feedback Score"); !ok || v != "8.5" {
		t.Fatalf("expected score \"8.5\", got %q found=%v", v, ok)
	}
	if v, ok := o.String("Callback"); !ok || v != "true" {
		t.Fatalf("expected callback \"true\", got %q found=%v", v, ok)
	}
}

func TestOutputs_BoolReportsExplicitFalse(t *testing.T) {
	o := FlattenOutputs(json.RawMessage(`[{"name": "Callback", "result": false}]`))
	v, ok := o.Bool("Callback")
	if !ok {
		t.Fatalf("expected explicit false to be found")
	}
	if v {
		t.Fatalf("expected false")
	}

	if _, ok := o.Bool("Missing"); ok {
		t.Fatalf("expected missing name to be not found")
	}
}

func TestOutputs_BoolAcceptsStringForms(t *testing.T) {
	o := FlattenOutputs(json.RawMessage(`[
		{"name": "A", "result": "TRUE"},
		{"name": "B", "result": "false"},
		{"name": "C", "result": "maybe"}
	]`))

	if v, ok := o.Bool("A"); !ok || !v {
		t.Fatalf("expected A true, got %v found=%v", v, ok)
	}
	if v, ok := o.Bool("B"); !ok || v {
		t.Fatalf("expected B false, got %v found=%v", v, ok)
	}
	if _, ok := o.Bool("C"); ok {
		t.Fatalf("expected C uncoercible")
	}
}

func TestOutputs_IntCoercesStrings(t *testing.T) {
	o := FlattenOutputs(json.RawMessage(`[
		{"name": "Callback Attempt", "result": "2"},
		{"name": "Other", "result": 3.0}
	]`))

	if v, ok := o.Int("Callback Attempt"); !ok || v != 2 {
		t.Fatalf("expected 2, got %d found=%v", v, ok)
	}
	if v, ok := o.Int("Other"); !ok || v != 3 {
		t.Fatalf("expected 3, got %d found=%v", v, ok)
	}
	if _, ok := o.Int("Missing"); ok {
		t.Fatalf("expected missing to be not found")
	}
}
