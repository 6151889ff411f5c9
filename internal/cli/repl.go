package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/mna/mainer"

	"ember/lang/vm"
)

// runREPL implements no-argument mode: read one line at a
// time from stdio.Stdin, call Interpret, print results, loop until EOF.
// Each line's Result is reported but never changes the REPL's own exit
// code — only the one-file driver (runFile) maps Result to a process
// exit code.
func runREPL(ctx context.Context, machine *vm.VM, stdio mainer.Stdio) {
	fmt.Fprint(stdio.Stdout, "> ")
	scanner := bufio.NewScanner(stdio.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		machine.Interpret(scanner.Text())
		fmt.Fprint(stdio.Stdout, "> ")
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
	}
}
