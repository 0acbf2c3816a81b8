package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args[1:], DefaultEnv()))
}

// runMain runs the CLI and returns the process exit code.
func runMain(args []string, env *Environment) int {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	undo, _ := maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	defer undo()

	ctx, stop := notifyContext(context.Background())
	defer stop()

	err := run(ctx, args, env)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, "error: "+err.Error()+hintFor(err))
	}
	return exitCodeFor(err)
}

// run dispatches to a command.
func run(ctx context.Context, args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return fmt.Errorf("%w: no command", ErrUsage)
	}

	// Bare manuscript paths build, as in "rsm paper.rsm".
	if looksLikeManuscript(args[0]) {
		return runMake(ctx, args, env)
	}

	switch args[0] {
	case "make":
		return runMake(ctx, args[1:], env)
	case "lint":
		return runLint(ctx, args[1:], env)
	case "serve":
		return runServe(ctx, args[1:], env)
	case "doctor":
		return runDoctor(args[1:], env)
	case "completion":
		return runCompletion(args[1:], env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "rsm %s\n", Version)
		return nil
	case "help", "-h", "--help":
		return runHelp(args[1:], env)
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

// looksLikeManuscript reports whether arg names an RSM source file.
func looksLikeManuscript(arg string) bool {
	return filepath.Ext(arg) == sourceExt
}
