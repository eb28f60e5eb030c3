package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathtex [command] [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert a description to rendered LaTeX (default)")
	fmt.Fprintln(w, "  batch      Convert every prompt of a file in parallel")
	fmt.Fprintln(w, "  repl       Convert lines interactively")
	fmt.Fprintln(w, "  doctor     Check browser, model and environment setup")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mathtex help <command>' for details on a specific command.")
}

// printConvertFlagGroups prints the flags shared by convert and batch.
func printConvertFlagGroups(w io.Writer) {
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory (\"-\" = stdout)")
	fmt.Fprintln(w, "  -F, --format <s>          html, png, pdf, tex, json (default: png)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -t, --timeout <d>         Model and browser timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Model:")
	fmt.Fprintln(w, "      --provider <s>        anthropic (default) or openai")
	fmt.Fprintln(w, "  -m, --model <s>           Model identifier")
	fmt.Fprintln(w, "      --base-url <url>      OpenAI-compatible endpoint")
	fmt.Fprintln(w, "      --max-tokens <n>      Reply token budget")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Renderer:")
	fmt.Fprintln(w, "      --load-timeout <d>    KaTeX load timeout")
	fmt.Fprintln(w, "      --browser-bin <path>  Chrome/Chromium executable")
	fmt.Fprintln(w, "      --no-sandbox          Disable the Chrome sandbox (Docker/CI)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page (pdf):")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: letter, a4, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0.25-3.0)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <name>        Host page style (default, minimal)")
	fmt.Fprintln(w, "      --template <name>     Host page template")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles/ and templates/ directory")
	fmt.Fprintln(w, "      --highlight <name>    Chroma style for the LaTeX source")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathtex convert [flags] <description...>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ask the model for the LaTeX of a description and export it.")
	fmt.Fprintln(w, "Without arguments, or with \"-\", the description is read from stdin.")
	fmt.Fprintln(w)
	printConvertFlagGroups(w)
}

// printBatchUsage prints usage for the batch command.
func printBatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathtex batch -f <prompts> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert many prompts in parallel. A .yaml/.yml file is a list of")
	fmt.Fprintln(w, "jobs with text, output and format; any other file has one prompt")
	fmt.Fprintln(w, "per line (# starts a comment). Outputs default to prompt-NNN.<ext>.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Batch:")
	fmt.Fprintln(w, "  -f, --file <path>         Prompts file (\"-\" = stdin)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	printConvertFlagGroups(w)
}

// printReplUsage prints usage for the repl command.
func printReplUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathtex repl [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Each line starts a new conversion. When lines arrive faster than")
	fmt.Fprintln(w, "answers, only the answer to the latest line is printed.")
	fmt.Fprintln(w, "Type :q or send EOF to quit.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -t, --timeout <d>         Model timeout")
	fmt.Fprintln(w, "      --provider <s>        anthropic (default) or openai")
	fmt.Fprintln(w, "  -m, --model <s>           Model identifier")
	fmt.Fprintln(w, "      --base-url <url>      OpenAI-compatible endpoint")
	fmt.Fprintln(w, "      --max-tokens <n>      Reply token budget")
	fmt.Fprintln(w, "  -q, --quiet               No prompt, errors only")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mathtex config [--config <name>] [--paths]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the effective configuration as YAML, after MATHTEX_* overrides.")
	fmt.Fprintln(w, "--paths lists the locations searched for a config name.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "batch":
		printBatchUsage(env.Stdout)
	case "repl":
		printReplUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: mathtex doctor [--json] [--config <name>]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, the model API key and the KaTeX sources.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mathtex version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mathtex help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
