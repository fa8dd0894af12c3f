package logutil

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestIsSensitiveLogField(t *testing.T) {
	t.Parallel()
	for _, key := range []string{"password", "Password", "re_password", "repassword", "password_hash", "DB_PASSWORD", "dsn", "session-cookie"} {
		if !IsSensitiveLogField(key) {
			t.Errorf("expected %q to be sensitive", key)
		}
	}
	for _, key := range []string{"username", "email", "name", "url"} {
		if IsSensitiveLogField(key) {
			t.Errorf("expected %q to be safe", key)
		}
	}
}

func testRedactFields_NeverLeaksPasswords(t *rapid.T) {
	password := rapid.StringMatching(`[A-Za-z0-9!@#]{1,40}`).Draw(t, "password")
	username := rapid.StringMatching(`[a-z]{3,12}`).Draw(t, "username")

	out := RedactFields(map[string]string{
		"username":   username,
		"password":   password,
		"repassword": password,
	})
	if out["username"] != username {
		t.Fatalf("username altered: %q", out["username"])
	}
	if out["password"] != redacted || out["repassword"] != redacted {
		t.Fatalf("password leaked: %v", out)
	}
	formatted := FormatFieldsForLog(map[string]string{"password": password, "username": username})
	if !strings.Contains(formatted, `password="[REDACTED]"`) {
		t.Fatalf("formatted fields leaked password: %s", formatted)
	}
}

func TestRedactFields_NeverLeaksPasswords(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testRedactFields_NeverLeaksPasswords)
}

func TestRedactValue_EmptyStaysEmpty(t *testing.T) {
	t.Parallel()
	if got := RedactValue("password", ""); got != "" {
		t.Fatalf("RedactValue(empty) = %q, want empty", got)
	}
}

func TestFormatFieldsForLog_Stable(t *testing.T) {
	t.Parallel()
	got := FormatFieldsForLog(map[string]string{"username": "newuser", "email": "john@example.com"})
	want := `email="john@example.com" username="newuser"`
	if got != want {
		t.Fatalf("FormatFieldsForLog = %q, want %q", got, want)
	}
	if FormatFieldsForLog(nil) != "{}" {
		t.Fatal("empty fields should format as {}")
	}
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()
	if got := TruncateForLog("  <h4>Sign-In</h4>\n<form>  ", 0); got != `<h4>Sign-In</h4>\n<form>` {
		t.Fatalf("unexpected normalization: %q", got)
	}
	if got := TruncateForLog(strings.Repeat("a", 20), 5); got != "aaaaa... [truncated]" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if TruncateForLog("   ", 10) != "" {
		t.Fatal("blank input should produce empty output")
	}
}
