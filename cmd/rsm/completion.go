package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-rsm/internal/lint"
	"github.com/alnah/go-rsm/internal/parser"
)

// Shell is a shell that `rsm completion` can write a script for.
type Shell string

const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned for a shell with no generator.
var ErrUnsupportedShell = errors.New("unsupported shell")

type flagType int

const (
	flagString flagType = iota
	flagBool
	flagInt
	flagFloat
	flagEnum
	flagFile
	flagDir
)

// flagDef describes one flag for completion.
type flagDef struct {
	Long       string
	Short      string
	Type       flagType
	Desc       string
	Values     []string // flagEnum
	FileGlob   string   // flagFile, comma separated
	Repeatable bool
}

// commandDef describes one subcommand for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	TakesFiles  bool
	FilePattern string
	Args        []string // fixed positional words, e.g. command names for help
}

// completionMeta adds what a FlagSet cannot say about a flag's value.
type completionMeta struct {
	Values   func() []string
	FileGlob string
	IsDir    bool
}

var flagCompletionMeta = map[string]completionMeta{
	"parser":       {Values: parser.Backends},
	"disable-rule": {Values: lint.RuleNames},
	"asset":        {Values: manifestNames},

	"config": {FileGlob: "*.yaml,*.yml"},

	"output":     {IsDir: true},
	"asset-dir":  {IsDir: true},
	"static-dir": {IsDir: true},
}

var shells = []string{string(ShellBash), string(ShellZsh), string(ShellFish), string(ShellPowerShell)}

// extractFlags reads flag definitions from fs, so completion always matches
// what the command actually parses.
func extractFlags(fs *flag.FlagSet) []flagDef {
	var defs []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{Long: f.Name, Short: f.Shorthand, Desc: f.Usage}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "count":
			fd.Type = flagBool
			fd.Repeatable = true
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fd.Type = flagInt
		case "float32", "float64":
			fd.Type = flagFloat
		case "stringArray", "stringSlice":
			fd.Repeatable = true
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case meta.Values != nil:
				fd.Type = flagEnum
				fd.Values = meta.Values()
			case meta.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			case meta.IsDir:
				fd.Type = flagDir
			}
		}
		defs = append(defs, fd)
	})
	return defs
}

// getCommands lists the subcommands with flags taken from their real sets.
func getCommands() []commandDef {
	manuscripts := "*" + sourceExt
	commands := []commandDef{
		{Name: "make", Desc: "Build manuscripts to HTML", Flags: extractFlags(makeFlagSet(&makeFlags{})), TakesFiles: true, FilePattern: manuscripts},
		{Name: "lint", Desc: "Parse and lint manuscripts", Flags: extractFlags(lintFlagSet(&lintFlags{})), TakesFiles: true, FilePattern: manuscripts},
		{Name: "serve", Desc: "Serve a manuscript with live reload", Flags: extractFlags(serveFlagSet(&serveFlags{})), TakesFiles: true, FilePattern: manuscripts},
		{Name: "doctor", Desc: "Check the PDF export environment", Flags: extractFlags(doctorFlagSet(new(bool)))},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
		{Name: "completion", Desc: "Generate shell completion script", Args: shells},
	}
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.Name
	}
	for i := range commands {
		if commands[i].Name == "help" {
			commands[i].Args = names
		}
	}
	return commands
}

// GenerateCompletion writes the completion script for shell to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var b strings.Builder
	cmds := getCommands()
	switch shell {
	case ShellBash:
		writeBash(&b, cmds)
	case ShellZsh:
		writeZsh(&b, cmds)
	case ShellFish:
		writeFish(&b, cmds)
	case ShellPowerShell:
		writePowerShell(&b, cmds)
	default:
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedShell, shell, strings.Join(shells, ", "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rsm completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate a completion script for bash, zsh, fish or powershell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w, "  bash        eval \"$(rsm completion bash)\"            # ~/.bashrc")
	fmt.Fprintln(w, "  zsh         eval \"$(rsm completion zsh)\"             # ~/.zshrc, before compinit")
	fmt.Fprintln(w, "  fish        rsm completion fish > ~/.config/fish/completions/rsm.fish")
	fmt.Fprintln(w, "  powershell  rsm completion powershell | Out-String | Invoke-Expression")
}

// globs splits "*.yaml,*.yml" into its patterns.
func globs(pattern string) []string {
	return strings.Split(pattern, ",")
}

// flagWords returns --long and -s spellings of every flag.
func flagWords(flags []flagDef) []string {
	var words []string
	for _, f := range flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return words
}

// ---------------------------------------------------------------------------
// bash
// ---------------------------------------------------------------------------

func bashFiles(pattern string) string {
	var parts []string
	for _, g := range globs(pattern) {
		parts = append(parts, fmt.Sprintf("$(compgen -f -X '!%s' -- \"$cur\")", g))
	}
	return strings.Join(parts, " ")
}

func writeBash(b *strings.Builder, cmds []commandDef) {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}

	b.WriteString("# bash completion for rsm\n")
	b.WriteString("_rsm_completions() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(b, "        COMPREPLY=($(compgen -W \"%s\" -- \"$cur\") %s)\n", strings.Join(names, " "), bashFiles("*"+sourceExt))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"$cmd\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(b, "    %s)\n", c.Name)
		if len(c.Flags) > 0 {
			b.WriteString("        case \"$prev\" in\n")
			for _, f := range c.Flags {
				if f.Type == flagBool {
					continue
				}
				pat := "--" + f.Long
				if f.Short != "" {
					pat += "|-" + f.Short
				}
				switch f.Type {
				case flagEnum:
					fmt.Fprintf(b, "        %s) COMPREPLY=($(compgen -W \"%s\" -- \"$cur\")); return ;;\n", pat, strings.Join(f.Values, " "))
				case flagFile:
					fmt.Fprintf(b, "        %s) COMPREPLY=(%s); return ;;\n", pat, bashFiles(f.FileGlob))
				case flagDir:
					fmt.Fprintf(b, "        %s) COMPREPLY=($(compgen -d -- \"$cur\")); return ;;\n", pat)
				default:
					fmt.Fprintf(b, "        %s) COMPREPLY=(); return ;;\n", pat)
				}
			}
			b.WriteString("        esac\n")
			b.WriteString("        if [[ \"$cur\" == -* ]]; then\n")
			fmt.Fprintf(b, "            COMPREPLY=($(compgen -W \"%s\" -- \"$cur\"))\n", strings.Join(flagWords(c.Flags), " "))
			b.WriteString("            return\n")
			b.WriteString("        fi\n")
		}
		switch {
		case c.TakesFiles:
			fmt.Fprintf(b, "        COMPREPLY=(%s $(compgen -d -- \"$cur\"))\n", bashFiles(c.FilePattern))
		case len(c.Args) > 0:
			fmt.Fprintf(b, "        [[ ${COMP_CWORD} -eq 2 ]] && COMPREPLY=($(compgen -W \"%s\" -- \"$cur\"))\n", strings.Join(c.Args, " "))
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -F _rsm_completions rsm\n")
}

// ---------------------------------------------------------------------------
// zsh
// ---------------------------------------------------------------------------

var zshEscaper = strings.NewReplacer("'", `'\''`, "[", `\[`, "]", `\]`, ":", `\:`)

// zshGlob turns "*.yaml,*.yml" into "*.(yaml|yml)".
func zshGlob(pattern string) string {
	gs := globs(pattern)
	if len(gs) == 1 {
		return gs[0]
	}
	exts := make([]string, len(gs))
	for i, g := range gs {
		exts[i] = strings.TrimPrefix(g, "*.")
	}
	return "*.(" + strings.Join(exts, "|") + ")"
}

func zshSpec(f flagDef) string {
	var action string
	switch f.Type {
	case flagBool:
	case flagEnum:
		action = fmt.Sprintf(":%s:(%s)", f.Long, strings.Join(f.Values, " "))
	case flagFile:
		action = fmt.Sprintf(":file:_files -g \"%s\"", zshGlob(f.FileGlob))
	case flagDir:
		action = ":directory:_files -/"
	default:
		action = ":value: "
	}
	tail := "[" + zshEscaper.Replace(f.Desc) + "]" + action

	if f.Short == "" {
		prefix := ""
		if f.Repeatable {
			prefix = "*"
		}
		return "'" + prefix + "--" + f.Long + tail + "'"
	}
	exclusion := fmt.Sprintf("'(-%s --%s)'", f.Short, f.Long)
	if f.Repeatable {
		exclusion = "'*'"
	}
	return fmt.Sprintf("%s{-%s,--%s}'%s'", exclusion, f.Short, f.Long, tail)
}

func writeZsh(b *strings.Builder, cmds []commandDef) {
	b.WriteString("#compdef rsm\n\n")
	b.WriteString("_rsm() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "        '%s:%s'\n", c.Name, zshEscaper.Replace(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	fmt.Fprintf(b, "        _files -g \"*%s\"\n", sourceExt)
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${words[2]}\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(b, "    %s)\n", c.Name)
		b.WriteString("        shift words; (( CURRENT-- ))\n")
		b.WriteString("        _arguments -s")
		for _, f := range c.Flags {
			fmt.Fprintf(b, " \\\n            %s", zshSpec(f))
		}
		switch {
		case c.TakesFiles:
			fmt.Fprintf(b, " \\\n            '*:manuscript:_files -g \"%s\"'", c.FilePattern)
		case len(c.Args) > 0:
			fmt.Fprintf(b, " \\\n            '1:%s:(%s)'", c.Name, strings.Join(c.Args, " "))
		}
		b.WriteString("\n        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("_rsm \"$@\"\n")
}

// ---------------------------------------------------------------------------
// fish
// ---------------------------------------------------------------------------

var fishEscaper = strings.NewReplacer(`\`, `\\`, "'", `\'`)

func fishSuffixes(pattern string) string {
	var calls []string
	for _, g := range globs(pattern) {
		calls = append(calls, "__fish_complete_suffix "+strings.TrimPrefix(g, "*"))
	}
	return "(" + strings.Join(calls, "; ") + ")"
}

func writeFish(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# fish completion for rsm\n\n")
	b.WriteString("function __fish_rsm_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	b.WriteString("function __fish_rsm_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test \"$cmd[2]\" = \"$argv[1]\"\n")
	b.WriteString("end\n\n")
	b.WriteString("complete -c rsm -f\n")
	fmt.Fprintf(b, "complete -c rsm -n __fish_rsm_needs_command -a '%s'\n", fishSuffixes("*"+sourceExt))

	for _, c := range cmds {
		fmt.Fprintf(b, "complete -c rsm -n __fish_rsm_needs_command -a %s -d '%s'\n", c.Name, fishEscaper.Replace(c.Desc))
	}

	for _, c := range cmds {
		cond := fmt.Sprintf("-n '__fish_rsm_using_command %s'", c.Name)
		b.WriteString("\n")
		for _, f := range c.Flags {
			fmt.Fprintf(b, "complete -c rsm %s", cond)
			if f.Short != "" {
				fmt.Fprintf(b, " -s %s", f.Short)
			}
			fmt.Fprintf(b, " -l %s -d '%s'", f.Long, fishEscaper.Replace(f.Desc))
			switch f.Type {
			case flagBool:
			case flagEnum:
				fmt.Fprintf(b, " -x -a '%s'", strings.Join(f.Values, " "))
			case flagFile:
				fmt.Fprintf(b, " -x -a '%s'", fishSuffixes(f.FileGlob))
			case flagDir:
				b.WriteString(" -x -a '(__fish_complete_directories)'")
			default:
				b.WriteString(" -x")
			}
			b.WriteString("\n")
		}
		switch {
		case c.TakesFiles:
			fmt.Fprintf(b, "complete -c rsm %s -a '%s'\n", cond, fishSuffixes(c.FilePattern))
		case len(c.Args) > 0:
			fmt.Fprintf(b, "complete -c rsm %s -a '%s'\n", cond, strings.Join(c.Args, " "))
		}
	}
}

// ---------------------------------------------------------------------------
// powershell
// ---------------------------------------------------------------------------

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func psList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = psQuote(s)
	}
	return "@(" + strings.Join(quoted, ", ") + ")"
}

func writePowerShell(b *strings.Builder, cmds []commandDef) {
	b.WriteString("# powershell completion for rsm\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName rsm -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $words = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })\n\n")

	b.WriteString("    $commands = [ordered]@{\n")
	for _, c := range cmds {
		fmt.Fprintf(b, "        %s = %s\n", psQuote(c.Name), psQuote(c.Desc))
	}
	b.WriteString("    }\n\n")

	b.WriteString("    $flags = @{\n")
	for _, c := range cmds {
		words := flagWords(c.Flags)
		if len(c.Flags) == 0 {
			words = c.Args
		}
		fmt.Fprintf(b, "        %s = %s\n", psQuote(c.Name), psList(words))
	}
	b.WriteString("    }\n\n")

	values := map[string][]string{}
	var order []string
	for _, c := range cmds {
		for _, f := range c.Flags {
			if f.Type != flagEnum {
				continue
			}
			if _, seen := values["--"+f.Long]; !seen {
				order = append(order, "--"+f.Long)
			}
			values["--"+f.Long] = f.Values
		}
	}
	b.WriteString("    $values = @{\n")
	for _, k := range order {
		fmt.Fprintf(b, "        %s = %s\n", psQuote(k), psList(values[k]))
	}
	b.WriteString("    }\n\n")

	b.WriteString("    $complete = {\n")
	b.WriteString("        param($items)\n")
	b.WriteString("        $items | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("    }\n\n")

	b.WriteString("    if ($words.Count -lt 2 -or ($words.Count -eq 2 -and $wordToComplete -ne '')) {\n")
	b.WriteString("        $commands.GetEnumerator() | Where-Object { $_.Key -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_.Key, $_.Key, 'ParameterValue', $_.Value)\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n\n")

	b.WriteString("    $cmd = $words[1]\n")
	b.WriteString("    $prev = if ($wordToComplete -ne '') { $words[-2] } else { $words[-1] }\n")
	b.WriteString("    if ($values.ContainsKey($prev)) {\n")
	b.WriteString("        & $complete $values[$prev]\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n")
	b.WriteString("    if ($flags.ContainsKey($cmd) -and ($wordToComplete -like '-*' -or $flags[$cmd][0] -notlike '-*')) {\n")
	b.WriteString("        & $complete $flags[$cmd]\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
}
