package config

import (
	"testing"
)

func TestFlatten_Simple(t *testing.T) {
	m := map[string]any{
		"a": "hello",
		"b": 42.0,
	}
	got := Flatten(m)
	if got["a"] != "hello" {
		t.Errorf("expected a=hello, got %v", got["a"])
	}
	if got["b"] != 42.0 {
		t.Errorf("expected b=42, got %v", got["b"])
	}
	if len(got) != 2 {
		t.Errorf("expected 2 keys, got %d", len(got))
	}
}

func TestFlatten_Nested(t *testing.T) {
	m := map[string]any{
		"llm": map[string]any{
			"model":   "gpt-4o-mini",
			"api_key": "sk-test123",
		},
		"env": "local",
	}
	got := Flatten(m)
	if got["llm.model"] != "gpt-4o-mini" {
		t.Errorf("expected llm.model=gpt-4o-mini, got %v", got["llm.model"])
	}
	if got["llm.api_key"] != "sk-test123" {
		t.Errorf("expected llm.api_key=sk-test123, got %v", got["llm.api_key"])
	}
	if got["env"] != "local" {
		t.Errorf("expected env=local, got %v", got["env"])
	}
	if len(got) != 3 {
		t.Errorf("expected 3 keys, got %d", len(got))
	}
}

func TestFlatten_DeeplyNested(t *testing.T) {
	m := map[string]any{
		"a": map[string]any{
			"b": map[string]any{
				"c": "deep",
			},
		},
	}
	got := Flatten(m)
	if got["a.b.c"] != "deep" {
		t.Errorf("expected a.b.c=deep, got %v", got["a.b.c"])
	}
	if len(got) != 1 {
		t.Errorf("expected 1 key, got %d", len(got))
	}
}

func TestFlatten_EmptyNestedMap(t *testing.T) {
	m := map[string]any{
		"a": map[string]any{},
	}
	got := Flatten(m)
	if len(got) != 0 {
		t.Errorf("expected 0 keys (empty nested map produces nothing), got %d", len(got))
	}
}

func TestUnflatten_Nested(t *testing.T) {
	flat := map[string]any{
		"llm.model":   "gpt-4o-mini",
		"llm.api_key": "sk-test123",
		"env":         "local",
	}
	got := Unflatten(flat)
	llm, ok := got["llm"].(map[string]any)
	if !ok {
		t.Fatalf("expected llm to be map, got %T", got["llm"])
	}
	if llm["model"] != "gpt-4o-mini" {
		t.Errorf("expected llm.model=gpt-4o-mini, got %v", llm["model"])
	}
	if llm["api_key"] != "sk-test123" {
		t.Errorf("expected llm.api_key=sk-test123, got %v", llm["api_key"])
	}
	if got["env"] != "local" {
		t.Errorf("expected env=local, got %v", got["env"])
	}
}

func TestUnflatten_DeeplyNested(t *testing.T) {
	flat := map[string]any{
		"a.b.c": "deep",
	}
	got := Unflatten(flat)
	a, ok := got["a"].(map[string]any)
	if !ok {
		t.Fatalf("expected a to be map, got %T", got["a"])
	}
	b, ok := a["b"].(map[string]any)
	if !ok {
		t.Fatalf("expected a.b to be map, got %T", a["b"])
	}
	if b["c"] != "deep" {
		t.Errorf("expected a.b.c=deep, got %v", b["c"])
	}
}

func TestRoundTrip_FlattenUnflatten(t *testing.T) {
	original := map[string]any{
		"env":    "local",
		"listen": ":8080",
		"llm": map[string]any{
			"api_key": "sk-test123456",
			"model":   "gpt-4o-mini",
		},
		"odds": map[string]any{
			"api_key":       "odds-key-xyz",
			"default_sport": "soccer_epl",
		},
	}

	flat := Flatten(original)
	restored := Unflatten(flat)

	if restored["env"] != original["env"] {
		t.Errorf("env mismatch: %v != %v", restored["env"], original["env"])
	}
	if restored["listen"] != original["listen"] {
		t.Errorf("listen mismatch: %v != %v", restored["listen"], original["listen"])
	}

	llm := restored["llm"].(map[string]any)
	origLLM := original["llm"].(map[string]any)
	if llm["api_key"] != origLLM["api_key"] {
		t.Errorf("llm.api_key mismatch: %v != %v", llm["api_key"], origLLM["api_key"])
	}
	if llm["model"] != origLLM["model"] {
		t.Errorf("llm.model mismatch: %v != %v", llm["model"], origLLM["model"])
	}

	odds := restored["odds"].(map[string]any)
	origOdds := original["odds"].(map[string]any)
	if odds["api_key"] != origOdds["api_key"] {
		t.Errorf("odds.api_key mismatch: %v != %v", odds["api_key"], origOdds["api_key"])
	}
	if odds["default_sport"] != origOdds["default_sport"] {
		t.Errorf("odds.default_sport mismatch: %v != %v", odds["default_sport"], origOdds["default_sport"])
	}
}

func TestMaskSecrets_AllSecrets(t *testing.T) {
	flat := map[string]any{
		"llm.model":    "gpt-4o-mini",
		"llm.api_key":  "sk-test123456",
		"odds.api_key": "odds-abcdef1234",
		"postgres.dsn": "postgres://u:p@localhost/wagerwiz",
		"env":          "local",
	}
	got := MaskSecrets(flat)

	if got["llm.model"] != "gpt-4o-mini" {
		t.Errorf("expected llm.model unchanged, got %v", got["llm.model"])
	}
	if got["env"] != "local" {
		t.Errorf("expected env unchanged, got %v", got["env"])
	}

	if got["llm.api_key"] != "***3456" {
		t.Errorf("expected llm.api_key=***3456, got %v", got["llm.api_key"])
	}
	if got["odds.api_key"] != "***1234" {
		t.Errorf("expected odds.api_key=***1234, got %v", got["odds.api_key"])
	}
	if got["postgres.dsn"] != "***rwiz" {
		t.Errorf("expected postgres.dsn=***rwiz, got %v", got["postgres.dsn"])
	}
}

func TestMaskSecrets_EmptySecret(t *testing.T) {
	flat := map[string]any{
		"llm.api_key": "",
	}
	got := MaskSecrets(flat)
	if got["llm.api_key"] != "" {
		t.Errorf("expected empty string to remain empty, got %v", got["llm.api_key"])
	}
}

func TestMaskSecrets_ShortSecret(t *testing.T) {
	flat := map[string]any{
		"llm.api_key": "ab",
	}
	got := MaskSecrets(flat)
	if got["llm.api_key"] != "***ab" {
		t.Errorf("expected ***ab for short secret, got %v", got["llm.api_key"])
	}
}

func TestIsSecretKey(t *testing.T) {
	for _, key := range []string{"llm.api_key", "odds.api_key", "postgres.dsn"} {
		if !IsSecretKey(key) {
			t.Errorf("expected %s to be secret", key)
		}
	}
	if IsSecretKey("llm.model") {
		t.Error("llm.model should not be secret")
	}
}
