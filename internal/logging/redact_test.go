package logging

import (
	"reflect"
	"testing"
)

func TestRedactValue(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"   ":                  "",
		"abc":                  "****",
		"sk-ant-longkey-98765": "****8765",
		"Bearer sk-token-4321": "Bearer ****4321",
	}
	for in, want := range cases {
		if got := RedactValue(in); got != want {
			t.Fatalf("RedactValue(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRedactAnyMasksSecretKeysOnly(t *testing.T) {
	in := map[string]any{
		"ANTHROPIC_API_KEY": "sk-ant-secret-12345",
		"provider":          "anthropic",
		"nested": map[string]any{
			"Token": "tok-abcdef",
			"model": "claude-sonnet-4-5",
		},
		"list": []any{map[string]any{"secret": "hush-9999"}},
	}
	got, ok := RedactAny(in).(map[string]any)
	if !ok {
		t.Fatalf("RedactAny changed the shape: %T", RedactAny(in))
	}
	if got["ANTHROPIC_API_KEY"] != "****2345" {
		t.Fatalf("api key not masked: %v", got["ANTHROPIC_API_KEY"])
	}
	if got["provider"] != "anthropic" {
		t.Fatalf("plain value altered: %v", got["provider"])
	}
	nested := got["nested"].(map[string]any)
	if nested["Token"] != "****cdef" || nested["model"] != "claude-sonnet-4-5" {
		t.Fatalf("nested map: %v", nested)
	}
	inner := got["list"].([]any)[0].(map[string]any)
	if inner["secret"] != "****9999" {
		t.Fatalf("slice element not masked: %v", inner)
	}
}

func TestRedactAnyStringMap(t *testing.T) {
	in := map[string]string{
		"OPENAI_API_KEY": "sk-oai-55555",
		"DISTILL_DEBUG":  "1",
	}
	want := map[string]string{
		"OPENAI_API_KEY": "****5555",
		"DISTILL_DEBUG":  "1",
	}
	if got := RedactAny(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("RedactAny = %v, want %v", got, want)
	}
}

func TestRedactAnyPassesThroughOtherTypes(t *testing.T) {
	if got := RedactAny(42); got != 42 {
		t.Fatalf("int altered: %v", got)
	}
	if got := RedactAny("sk-loose-value"); got != "sk-loose-value" {
		t.Fatalf("bare string altered: %v", got)
	}
}
