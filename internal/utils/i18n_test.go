package utils

import "testing"

func TestT_Fallback(t *testing.T) {
	if got := T("fr", "health.ok"); got != "ok" {
		t.Fatalf("fallback to en failed: %s", got)
	}
	if got := T("zh", "error.chaos"); got == "" || got == "error.chaos" {
		t.Fatalf("zh chaos message missing: %s", got)
	}
	if got := T("en", "no.such.key"); got != "no.such.key" {
		t.Fatalf("unknown key should echo, got %s", got)
	}
}
