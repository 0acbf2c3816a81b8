package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rsm <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  make       Build manuscripts to HTML")
	fmt.Fprintln(w, "  lint       Parse and lint manuscripts")
	fmt.Fprintln(w, "  serve      Serve a manuscript with live reload")
	fmt.Fprintln(w, "  doctor     Check the PDF export environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'rsm help <command>' for details on a specific command.")
}

// printBuildFlags prints the flags shared by make, lint and serve.
func printBuildFlags(w io.Writer) {
	fmt.Fprintln(w, "Build:")
	fmt.Fprintln(w, "      --lint / --no-lint    Run or skip the linter (default: run)")
	fmt.Fprintln(w, "  -t, --treesitter          Use the alternate parser")
	fmt.Fprintln(w, "      --parser <s>          Parser backend: classic, alternate")
	fmt.Fprintln(w, "      --structured          Emit head, body and init_script as JSON")
	fmt.Fprintln(w, "      --handrails           Add handrails to block elements")
	fmt.Fprintln(w, "      --disable-rule <s>    Lint rule to skip (repeatable)")
	fmt.Fprintln(w, "      --strict              Exit 5 when any error diagnostic is reported")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Assets:")
	fmt.Fprintln(w, "      --asset-dir <path>    Directory of local asset files")
	fmt.Fprintln(w, "      --static-path <s>     Runtime base path (default: /static/)")
	fmt.Fprintln(w, "      --asset <name>        Extra asset (repeatable)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             More logging (-vv for stage timings)")
	fmt.Fprintln(w, "      --log-json            Log as JSON lines")
}

// printMakeUsage prints usage for the make command.
func printMakeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rsm make <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build manuscripts to HTML. Directories are searched for .rsm files.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "      --stdout              Write output to stdout")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --pdf                 Also print each manuscript to PDF")
	fmt.Fprintln(w, "      --serve               Serve the manuscript with live reload")
	fmt.Fprintln(w)
	printBuildFlags(w)
	fmt.Fprintln(w)
	printEnvironment(w)
}

// printLintUsage prints usage for the lint command.
func printLintUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rsm lint <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Parse and lint manuscripts without rendering.")
	fmt.Fprintln(w)
	printBuildFlags(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rsm serve <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve a manuscript and rebuild it when the file changes.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "      --addr <host:port>    Listen address (default: 127.0.0.1:8000)")
	fmt.Fprintln(w, "      --static-dir <path>   Serve runtime files from this directory")
	fmt.Fprintln(w, "      --interval <d>        Source polling period (default: 500ms)")
	fmt.Fprintln(w)
	printBuildFlags(w)
}

// printEnvironment lists the RSM_* variables.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rsm doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, config and asset setup.")
}

func printEnvironment(w io.Writer) {
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  RSM_CONFIG, RSM_PARSER, RSM_STATIC_PATH, RSM_ASSET_DIR,")
	fmt.Fprintln(w, "  RSM_WORKERS, RSM_ADDR, RSM_BROWSER_BIN")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case "make":
		printMakeUsage(env.Stdout)
	case "lint":
		printLintUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: rsm version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "completion":
		printCompletionUsage(env.Stdout)
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: rsm help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return nil
}
