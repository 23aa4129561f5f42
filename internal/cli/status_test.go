package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keywordforge/kwforge/internal/models"
)

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name string
		snap *models.Snapshot
		want string
	}{
		{
			name: "nil snapshot",
			snap: nil,
			want: "idle",
		},
		{
			name: "idle",
			snap: &models.Snapshot{Status: models.StatusIdle},
			want: "idle",
		},
		{
			name: "processing with stage and detail",
			snap: &models.Snapshot{
				Status:      models.StatusProcessing,
				Stage:       "import_rows",
				StageDetail: "4200/9000 rows",
			},
			want: "processing (import_rows: 4200/9000 rows)",
		},
		{
			name: "error with message",
			snap: &models.Snapshot{
				Status:  models.StatusError,
				Message: "header mismatch",
			},
			want: "error - header mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusLine(tt.snap); got != tt.want {
				t.Errorf("statusLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderStatus(t *testing.T) {
	snap := &models.Snapshot{
		Status:          models.StatusProcessing,
		Stage:           "import_rows",
		CurrentFileName: "beta.csv",
		ProcessedFiles:  []string{"alpha.csv"},
		QueuedFiles:     []string{"gamma.csv"},
	}

	var buf bytes.Buffer
	renderStatus(&buf, "42", snap)
	out := buf.String()

	if !strings.Contains(out, "Project 42: processing (import_rows)") {
		t.Errorf("missing header line:\n%s", out)
	}
	// Steps before import are done, import is active, later steps pending.
	if !strings.Contains(out, "✓ 1. upload") {
		t.Errorf("upload step should render done:\n%s", out)
	}
	if !strings.Contains(out, "▶ 4. import") {
		t.Errorf("import step should render active:\n%s", out)
	}
	if strings.Contains(out, "▶ 5.") || strings.Contains(out, "✓ 5.") {
		t.Errorf("persist step should render pending:\n%s", out)
	}
	// All three files appear once in the table.
	for _, name := range []string{"alpha.csv", "beta.csv", "gamma.csv"} {
		if strings.Count(out, name) != 1 {
			t.Errorf("expected %s exactly once:\n%s", name, out)
		}
	}
}

func TestRenderStatusIdleHasNoTable(t *testing.T) {
	var buf bytes.Buffer
	renderStatus(&buf, "42", &models.Snapshot{Status: models.StatusIdle})

	if strings.Contains(buf.String(), "FILE") {
		t.Errorf("idle snapshot should not render a file table:\n%s", buf.String())
	}
}

func TestExpandArgsPlainPaths(t *testing.T) {
	paths, err := expandArgs([]string{"a.csv", "b.csv", "a.csv"})
	if err != nil {
		t.Fatalf("expandArgs: %v", err)
	}
	if len(paths) != 2 || paths[0] != "a.csv" || paths[1] != "b.csv" {
		t.Errorf("expected deduped [a.csv b.csv], got %v", paths)
	}
}

func TestExpandArgsGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.csv", "two.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := expandArgs([]string{filepath.Join(dir, "*.csv")})
	if err != nil {
		t.Fatalf("expandArgs: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected 2 csv matches, got %v", paths)
	}

	if _, err := expandArgs([]string{filepath.Join(dir, "*.xlsx")}); err == nil {
		t.Error("expected error for pattern with no matches")
	}
}
