// Package filetest provides golden-file helpers for tests that render
// text output (token dumps, disassembly) from source fixtures under a
// testdata/in directory and compare it against checked-in expectations
// under testdata/out.
package filetest

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
)

var updateGolden = flag.Bool("test.update-golden", false, "If set, rewrite golden files with the actual test output instead of diffing.")

// Sources returns the sorted paths of the regular files in dir carrying
// extension ext (with or without the leading dot).
func Sources(t *testing.T, dir, ext string) []string {
	t.Helper()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var paths []string
	for _, dent := range dents {
		if !dent.Type().IsRegular() {
			continue
		}
		if ext != "" && filepath.Ext(dent.Name()) != ext {
			continue
		}
		paths = append(paths, filepath.Join(dir, dent.Name()))
	}
	return paths
}

// Golden compares got against the golden file for srcPath in wantDir
// (the source file's base name plus ".want"). Under -test.update-golden
// it rewrites the golden file with got instead.
func Golden(t *testing.T, wantDir, srcPath, got string) {
	t.Helper()

	goldFile := filepath.Join(wantDir, filepath.Base(srcPath)+".want")
	if *updateGolden {
		if err := os.WriteFile(goldFile, []byte(got), 0o600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if patch := diff.Diff(string(wantb), got); patch != "" {
		t.Errorf("golden mismatch for %s:\n%s", srcPath, patch)
	}
}
