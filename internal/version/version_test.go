package version

import (
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	build := Current()

	if build.Version == "" {
		t.Error("version should not be empty")
	}
	if build.Commit == "" {
		t.Error("commit should not be empty")
	}
	if build.Date == "" {
		t.Error("date should not be empty")
	}
}

func TestString(t *testing.T) {
	s := String()

	for _, part := range []string{"version=", "commit=", "date="} {
		if !strings.Contains(s, part) {
			t.Errorf("expected %q in %q", part, s)
		}
	}
}

func TestBuildString(t *testing.T) {
	build := Build{Version: "1.2.3", Commit: "abc1234", Date: "2026-01-02"}

	expected := "version=1.2.3 commit=abc1234 date=2026-01-02"
	if got := build.String(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
