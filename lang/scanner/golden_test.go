package scanner_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ember/internal/filetest"
	"ember/lang/scanner"
	"ember/lang/token"
)

// TestScanGolden walks testdata/in for source files and checks the full
// token stream against a golden dump in testdata/out, one Line/Kind/Text
// triple per token.
func TestScanGolden(t *testing.T) {
	srcDir, wantDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, srcPath := range filetest.Sources(t, srcDir, ".ember") {
		srcPath := srcPath
		t.Run(filepath.Base(srcPath), func(t *testing.T) {
			src, err := os.ReadFile(srcPath)
			require.NoError(t, err)

			var sc scanner.Scanner
			sc.Init(string(src))

			var buf bytes.Buffer
			for {
				tok := sc.Next()
				fmt.Fprintf(&buf, "%d: %s %q\n", tok.Line, tok.Kind, tok.Text)
				if tok.Kind == token.EOF {
					break
				}
			}

			filetest.Golden(t, wantDir, srcPath, buf.String())
		})
	}
}
