// Package cli implements the command-line driver: a REPL when invoked
// with no file argument, a run-once file interpreter when given exactly
// one, and the usage/exit-code contract for everything else.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"ember/internal/config"
	"ember/lang/vm"
)

const binName = "ember"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Interpreter for the %[1]s scripting language.

With no <path>, starts a REPL: reads one line at a time from stdin,
interprets it, and prints results until end-of-file. With one <path>,
reads that file and interprets it as a whole program. Exit codes:

       0     success (or REPL reached EOF)
       64    usage error (more than one path given)
       65    compile error
       70    runtime error
       74    could not read the given path

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -d --disassemble          Print bytecode disassembly of every
                                 compiled chunk to stderr before running.
`, binName)
)

// exit codes, sysexits-style.
const (
	exitOK        mainer.ExitCode = 0
	exitUsage     mainer.ExitCode = 64
	exitCompile   mainer.ExitCode = 65
	exitRuntime   mainer.ExitCode = 70
	exitIOFailure mainer.ExitCode = 74
)

// Cmd is the top-level command, parsed by github.com/mna/mainer.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help        bool `flag:"h,help"`
	Version     bool `flag:"v,version"`
	Disassemble bool `flag:"d,disassemble"`

	args []string
}

func (c *Cmd) SetArgs(args []string) { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("usage: at most one path may be given")
	}
	return nil
}

// Main parses args and runs the REPL or file driver, returning the
// process exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return exitOK
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return exitOK
	}

	if len(c.args) > 1 {
		fmt.Fprint(stdio.Stderr, shortUsage)
		return exitUsage
	}

	opts, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: invalid configuration: %s\n", binName, err)
		return exitUsage
	}

	machine := vm.New(vm.Config{
		MaxStackSlots:        opts.MaxStackSlots,
		MaxCallFrames:        opts.MaxCallFrames,
		GCStressTest:         opts.GCStressTest,
		GCLogVerbose:         opts.GCLogVerbose,
		GCHeapGrowFactor:     opts.GCHeapGrowFactor,
		Stdout:               stdio.Stdout,
		Stderr:               stdio.Stderr,
		DisassembleOnCompile: c.Disassemble,
	})

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	if len(c.args) == 0 {
		runREPL(ctx, machine, stdio)
		return exitOK
	}
	return runFile(machine, stdio, c.args[0])
}

// resultExitCode maps a vm.Result to the sysexits-style code the
// single-file driver returns.
func resultExitCode(res vm.Result) mainer.ExitCode {
	switch res {
	case vm.CompileError:
		return exitCompile
	case vm.RuntimeError:
		return exitRuntime
	default:
		return exitOK
	}
}
