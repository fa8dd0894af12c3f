package urlutil

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestBuildAbsolute_GeneratesExpectedURLs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := fmt.Sprintf(
			"http://%s.%s/%s",
			rapid.StringMatching(`[a-z]{3,12}`).Draw(rt, "baseHost"),
			rapid.StringMatching(`[a-z]{2,8}`).Draw(rt, "baseTld"),
			rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "prefix"),
		)
		if rapid.Bool().Draw(rt, "baseHasSlash") {
			base += "/"
		}
		normalized := strings.TrimRight(base, "/")

		pathKind := rapid.IntRange(0, 3).Draw(rt, "pathKind")
		var path, want string
		switch pathKind {
		case 0:
			path, want = "", normalized
		case 1:
			path = "/" + rapid.StringMatching(`[a-z]{1,12}\.php`).Draw(rt, "rootedPath")
			want = normalized + path
		case 2:
			path = rapid.StringMatching(`[a-z]{1,12}\.php`).Draw(rt, "relativePath")
			want = normalized + "/" + path
		case 3:
			path = fmt.Sprintf(
				"https://%s.%s/index.php",
				rapid.StringMatching(`[a-z]{3,10}`).Draw(rt, "absoluteHost"),
				rapid.StringMatching(`[a-z]{2,6}`).Draw(rt, "absoluteTld"),
			)
			want = path
		}

		if got := BuildAbsolute(base, path); got != want {
			rt.Fatalf("BuildAbsolute(%q, %q) = %q, want %q", base, path, got, want)
		}
	})
}

func TestBuildAbsolute_QuizPages(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		base, path, want string
	}{
		{"http://localhost/quiz", "login.php", "http://localhost/quiz/login.php"},
		{"http://localhost/quiz/", "register.php", "http://localhost/quiz/register.php"},
		{" http://app:8080 ", "/index.php", "http://app:8080/index.php"},
		{"", "login.php", "/login.php"},
	} {
		if got := BuildAbsolute(tc.base, tc.path); got != tc.want {
			t.Errorf("BuildAbsolute(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
}

func TestNormalizeBase(t *testing.T) {
	t.Parallel()
	if got := NormalizeBase("  http://localhost/quiz//  "); got != "http://localhost/quiz" {
		t.Fatalf("NormalizeBase = %q", got)
	}
	if NormalizeBase("   ") != "" {
		t.Fatal("blank base should normalize to empty")
	}
}
