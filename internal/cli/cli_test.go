package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ember/internal/cli"
)

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, code mainer.ExitCode) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	stdio := mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &outBuf,
		Stderr: &errBuf,
	}
	c := cli.Cmd{BuildVersion: "0.0.0", BuildDate: "2026-01-01"}
	code = c.Main(append([]string{"ember"}, args...), stdio)
	return outBuf.String(), errBuf.String(), code
}

func TestRunFileSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.ember")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + 2;`), 0o600))

	stdout, stderr, code := run(t, "", path)
	assert.Equal(t, "3\n", stdout)
	assert.Empty(t, stderr)
	assert.Equal(t, mainer.ExitCode(0), code)
}

func TestRunFileCompileErrorExits65(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.ember")
	require.NoError(t, os.WriteFile(path, []byte(`var x = ;`), 0o600))

	_, stderr, code := run(t, "", path)
	assert.NotEmpty(t, stderr)
	assert.Equal(t, mainer.ExitCode(65), code)
}

func TestRunFileRuntimeErrorExits70(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.ember")
	require.NoError(t, os.WriteFile(path, []byte(`a + 1;`), 0o600))

	_, stderr, code := run(t, "", path)
	assert.Contains(t, stderr, "Undefined variable")
	assert.Equal(t, mainer.ExitCode(70), code)
}

func TestMissingFileExits74(t *testing.T) {
	_, stderr, code := run(t, "", filepath.Join(t.TempDir(), "missing.ember"))
	assert.NotEmpty(t, stderr)
	assert.Equal(t, mainer.ExitCode(74), code)
}

func TestTooManyArgsExits64(t *testing.T) {
	_, stderr, code := run(t, "", "a.ember", "b.ember")
	assert.NotEmpty(t, stderr)
	assert.Equal(t, mainer.ExitCode(64), code)
}

func TestREPLEchoesPromptAndResults(t *testing.T) {
	stdout, _, code := run(t, "print 1;\nprint 2;\n")
	assert.Equal(t, mainer.ExitCode(0), code)
	assert.True(t, strings.HasPrefix(stdout, "> "), "REPL prints its prompt first")
	assert.Contains(t, stdout, "1\n")
	assert.Contains(t, stdout, "2\n")
}

func TestDisassembleFlagPrintsBytecodeBeforeRunning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.ember")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + 2;`), 0o600))

	stdout, stderr, code := run(t, "", "-d", path)
	assert.Equal(t, mainer.ExitCode(0), code)
	assert.Equal(t, "3\n", stdout)
	assert.Contains(t, stderr, "== <script> ==")
	assert.Contains(t, stderr, "add")
}
