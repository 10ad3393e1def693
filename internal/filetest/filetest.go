// Package filetest provides helpers for tests driven by txtar fixture
// archives, where a single file bundles a source script with its expected
// outputs.
package filetest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"golang.org/x/tools/txtar"
)

// A Fixture is a named txtar archive loaded from a testdata directory.
type Fixture struct {
	Name    string
	Archive *txtar.Archive
}

// Load returns the fixtures in dir with the given extension.
func Load(t *testing.T, dir, ext string) []Fixture {
	t.Helper()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	res := make([]Fixture, 0, len(dents))
	for _, dent := range dents {
		if !dent.Type().IsRegular() {
			continue
		}
		if ext != "" && filepath.Ext(dent.Name()) != ext {
			continue
		}
		ar, err := txtar.ParseFile(filepath.Join(dir, dent.Name()))
		if err != nil {
			t.Fatal(err)
		}
		res = append(res, Fixture{Name: dent.Name(), Archive: ar})
	}
	return res
}

// File returns the contents of the named file in the archive and whether it
// is present.
func File(ar *txtar.Archive, name string) (string, bool) {
	for _, f := range ar.Files {
		if f.Name == name {
			return string(f.Data), true
		}
	}
	return "", false
}

// MustFile is like File but fails the test when the file is missing.
func MustFile(t *testing.T, ar *txtar.Archive, name string) string {
	t.Helper()

	s, ok := File(ar, name)
	if !ok {
		t.Fatalf("fixture is missing file %q", name)
	}
	return s
}

// Diff fails the test with a line diff when got differs from want.
func Diff(t *testing.T, label, want, got string) {
	t.Helper()

	if patch := diff.Diff(want, got); patch != "" {
		if testing.Verbose() {
			t.Logf("got %s:\n%s\n", label, got)
		}
		t.Errorf("diff %s:\n%s\n", label, patch)
	}
}
