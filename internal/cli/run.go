package cli

import (
	"fmt"
	"os"

	"github.com/mna/mainer"

	"ember/lang/vm"
)

// runFile implements one-argument mode: read path as bytes
// and interpret it as a single program, exiting 0/65/70 on the
// interpreter's own result or 74 if the file cannot be read.
func runFile(machine *vm.VM, stdio mainer.Stdio, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return exitIOFailure
	}
	res := machine.Interpret(string(src))
	return resultExitCode(res)
}
