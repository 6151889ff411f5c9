package vm_test

import (
	"bytes"
	"os"
	"testing"

	"ember/lang/vm"

	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// scenario is one row of testdata/scenarios.yaml: a full program plus its
// expected stdout and/or stderr, kept as data rather than duplicated in
// Go.
type scenario struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Stdout string `yaml:"stdout"`
	Stderr string `yaml:"stderr"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	raw, err := os.ReadFile("testdata/scenarios.yaml")
	require.NoError(t, err)
	var scenarios []scenario
	require.NoError(t, yaml.Unmarshal(raw, &scenarios))
	require.NotEmpty(t, scenarios)
	return scenarios
}

func run(t *testing.T, source string) (stdout, stderr string, res vm.Result) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	machine := vm.New(vm.Config{Stdout: &outBuf, Stderr: &errBuf})
	res = machine.Interpret(source)
	return outBuf.String(), errBuf.String(), res
}

func TestScenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			stdout, stderr, res := run(t, sc.Source)
			if sc.Stdout != "" {
				if d := diff.Diff(sc.Stdout, stdout); d != "" {
					t.Fatalf("stdout mismatch:\n%s", d)
				}
				assert.Equal(t, vm.OK, res)
			}
			if sc.Stderr != "" {
				if d := diff.Diff(sc.Stderr, stderr); d != "" {
					t.Fatalf("stderr mismatch:\n%s", d)
				}
				assert.Equal(t, vm.RuntimeError, res)
			}
		})
	}
}

func TestGCStressDoesNotCorruptRunningProgram(t *testing.T) {
	var outBuf, errBuf bytes.Buffer
	machine := vm.New(vm.Config{Stdout: &outBuf, Stderr: &errBuf, GCStressTest: true})
	res := machine.Interpret(`
		class Pair {
			init(a, b) {
				this.a = a;
				this.b = b;
			}
			sum() {
				return this.a + this.b;
			}
		}
		fun build(n) {
			if (n == 0) return Pair(0, 0);
			var p = Pair(n, n * 2);
			return p;
		}
		var total = 0;
		var i = 0;
		while (i < 50) {
			var p = build(i);
			total = total + p.sum();
			i = i + 1;
		}
		print total;
	`)
	require.Equal(t, vm.OK, res, errBuf.String())
	assert.Equal(t, "3675\n", outBuf.String())
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, stderr, res := run(t, `
		fun add(a, b) { return a + b; }
		add(1);
	`)
	assert.Equal(t, vm.RuntimeError, res)
	assert.Contains(t, stderr, "Expected 2 arguments but got 1.")
}

func TestCallingClassWithNoInitRejectsArguments(t *testing.T) {
	_, stderr, res := run(t, `
		class Empty {}
		Empty(1);
	`)
	assert.Equal(t, vm.RuntimeError, res)
	assert.Contains(t, stderr, "Expected 0 arguments but got 1.")
}

func TestSubclassOfNonClassIsRuntimeError(t *testing.T) {
	_, stderr, res := run(t, `
		var NotAClass = 123;
		class Oops < NotAClass {}
	`)
	assert.Equal(t, vm.RuntimeError, res)
	assert.Contains(t, stderr, "Superclass must be a class.")
}

func TestCompileErrorReportsAndStopsBeforeRunning(t *testing.T) {
	_, stderr, res := run(t, `var x = ;`)
	assert.Equal(t, vm.CompileError, res)
	assert.Contains(t, stderr, "Error")
}

func TestFieldShadowsMethodOnInvoke(t *testing.T) {
	stdout, stderr, res := run(t, `
		fun asField() { return "field"; }
		class Box {
			value() { return "method"; }
		}
		var b = Box();
		b.value = asField;
		print b.value();
	`)
	require.Equal(t, vm.OK, res, stderr)
	assert.Equal(t, "field\n", stdout)
}

func TestGlobalReassignmentOfUndefinedNameErrors(t *testing.T) {
	_, stderr, res := run(t, `x = 1;`)
	assert.Equal(t, vm.RuntimeError, res)
	assert.Contains(t, stderr, "Undefined variable 'x'.")
}
