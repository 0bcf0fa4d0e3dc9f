package clifford

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

const updateSnapshotsEnv = "CLIFFORD_UPDATE"

// MatchSnapshot compares the current screen with the golden file
// testdata/snapshots/<test name>/<name>.txt. Subtests get nested
// directories.
//
// Run with CLIFFORD_UPDATE=1 to write the golden files instead.
func (term *Terminal) MatchSnapshot(name string) {
	term.t.Helper()
	term.Screen().MatchSnapshot(term.t, name)
}

// MatchSnapshot compares a captured screen with a golden file. See
// Terminal.MatchSnapshot.
func (s *Screen) MatchSnapshot(t testing.TB, name string) {
	t.Helper()

	path := snapshotPath(t.Name(), name)
	got := snapshotText(s.String())

	if envTruthy(updateSnapshotsEnv) {
		if err := writeSnapshot(path, got); err != nil {
			t.Fatalf("clifford: snapshot: %v", err)
		}
		return
	}

	want, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		t.Fatalf("clifford: snapshot: no golden file %s (run with %s=1 to create it)\n\nscreen:\n%s",
			path, updateSnapshotsEnv, got)
	case err != nil:
		t.Fatalf("clifford: snapshot: %v", err)
	}

	if diff := snapshotDiff(string(want), got, path); diff != "" {
		t.Fatalf("clifford: snapshot %q does not match (run with %s=1 to update)\n\n%s",
			name, updateSnapshotsEnv, diff)
	}
}

func writeSnapshot(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

// snapshotDiff returns a unified diff of want against got, or "" when
// they are equal.
func snapshotDiff(want, got, path string) string {
	if want == got {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: path,
		ToFile:   "screen",
		Context:  2,
	})
	if err != nil || diff == "" {
		return fmt.Sprintf("--- %s\n%s\n--- screen\n%s", path, want, got)
	}
	return diff
}

func snapshotPath(test, name string) string {
	elems := []string{"testdata", "snapshots"}
	for _, part := range strings.Split(test, "/") {
		elems = append(elems, sanitizeName(part))
	}
	return filepath.Join(append(elems, sanitizeName(name)+".txt")...)
}

// snapshotText is the screen with trailing spaces and blank rows removed
// and one final newline.
func snapshotText(screen string) string {
	lines := strings.Split(screen, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeName(name string) string {
	s := strings.Trim(unsafeNameRe.ReplaceAllString(name, "_"), "_")
	if s == "" {
		return "snapshot"
	}
	return s
}
