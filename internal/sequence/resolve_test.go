package sequence

import (
	"reflect"
	"testing"
)

func TestResolveStringFieldReference(t *testing.T) {
	ctx := Context{
		"temp": {"success": true, "value": 23.5},
	}

	got := ResolveString("temperature is {temp.value}", ctx)
	if got != "temperature is 23.5" {
		t.Fatalf("unexpected resolution: %q", got)
	}
}

func TestResolveStringWholeResult(t *testing.T) {
	ctx := Context{
		"reading": {"success": true, "value": 1},
	}

	got := ResolveString("{reading}", ctx)
	// Whole-result references serialize the result as JSON.
	if got != `{"success":true,"value":1}` {
		t.Fatalf("unexpected resolution: %q", got)
	}
}

func TestResolveStringUnresolvedPassThrough(t *testing.T) {
	ctx := Context{
		"known": {"success": true},
	}

	cases := []struct {
		in   string
		want string
	}{
		{"no placeholders here", "no placeholders here"},
		{"{missing.value}", "{missing.value}"},
		{"{known.absent_field}", "{known.absent_field}"},
		{"mixed {known.absent_field} and {missing}", "mixed {known.absent_field} and {missing}"},
	}
	for _, tc := range cases {
		if got := ResolveString(tc.in, ctx); got != tc.want {
			t.Fatalf("ResolveString(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveStringValueKinds(t *testing.T) {
	ctx := Context{
		"r": {
			"flag":  true,
			"count": float64(3),
			"ratio": 0.25,
			"text":  "hello",
			"blank": nil,
		},
	}

	cases := []struct {
		in   string
		want string
	}{
		{"{r.flag}", "true"},
		{"{r.count}", "3"},
		{"{r.ratio}", "0.25"},
		{"{r.text}", "hello"},
		{"{r.blank}", "null"},
	}
	for _, tc := range cases {
		if got := ResolveString(tc.in, ctx); got != tc.want {
			t.Fatalf("ResolveString(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveNested(t *testing.T) {
	ctx := Context{
		"sensor": {"value": float64(42)},
	}

	payload := map[string]any{
		"command": "serial_write",
		"data":    "reading={sensor.value}",
		"times":   float64(2),
		"extra": []any{
			"{sensor.value}",
			map[string]any{"inner": "{sensor.value}"},
		},
	}

	got := Resolve(payload, ctx)
	want := map[string]any{
		"command": "serial_write",
		"data":    "reading=42",
		"times":   float64(2),
		"extra": []any{
			"42",
			map[string]any{"inner": "42"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Resolve mismatch:\n got  %#v\n want %#v", got, want)
	}
}
