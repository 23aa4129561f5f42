package pathutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in test environment")
	}

	if got := ExpandHome("~/exports/kw.csv"); got != filepath.Join(home, "exports", "kw.csv") {
		t.Errorf("ExpandHome(~/...) = %q", got)
	}
	if got := ExpandHome("~"); got != home {
		t.Errorf("ExpandHome(~) = %q", got)
	}
	if got := ExpandHome("plain/kw.csv"); got != "plain/kw.csv" {
		t.Errorf("plain path should pass through, got %q", got)
	}
	if got := ExpandHome("~otheruser/kw.csv"); got != "~otheruser/kw.csv" {
		t.Errorf("~user path should pass through, got %q", got)
	}
}

func TestResolveExistingPath(t *testing.T) {
	dir := t.TempDir()
	got, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected absolute path, got %q", got)
	}
}

func TestResolveNonExistentTail(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "does", "not", "exist.csv")

	got, err := Resolve(target)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !strings.HasSuffix(got, filepath.Join("does", "not", "exist.csv")) {
		t.Errorf("remainder not preserved: %q", got)
	}
}

func TestResolveEmptyIsCwd(t *testing.T) {
	wd, _ := os.Getwd()
	got, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != wd {
		t.Errorf("Resolve(\"\") = %q, want %q", got, wd)
	}
}
