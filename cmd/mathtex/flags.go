package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// llmFlags holds model selection flags.
type llmFlags struct {
	provider  string
	model     string
	baseURL   string
	maxTokens int
}

// rendererFlags holds browser and engine flags.
type rendererFlags struct {
	loadTimeout string
	browserBin  string
	noSandbox   bool
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
}

// assetFlags holds host page asset flags.
type assetFlags struct {
	style     string
	template  string
	assetPath string
	highlight string
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common   commonFlags
	output   string
	format   string
	timeout  string
	llm      llmFlags
	renderer rendererFlags
	page     pageFlags
	assets   assetFlags
}

// batchFlags holds flags for the batch command.
type batchFlags struct {
	convertFlags
	file    string
	workers int
}

// replFlags holds flags for the repl command.
type replFlags struct {
	common  commonFlags
	timeout string
	llm     llmFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
}

// addLLMFlags adds model flags to a FlagSet.
func addLLMFlags(fs *flag.FlagSet, f *llmFlags) {
	fs.StringVar(&f.provider, "provider", "", "model provider: anthropic, openai")
	fs.StringVarP(&f.model, "model", "m", "", "model identifier")
	fs.StringVar(&f.baseURL, "base-url", "", "OpenAI-compatible endpoint URL")
	fs.IntVar(&f.maxTokens, "max-tokens", 0, "reply token budget (0 = default)")
}

// addRendererFlags adds browser and engine flags to a FlagSet.
func addRendererFlags(fs *flag.FlagSet, f *rendererFlags) {
	fs.StringVar(&f.loadTimeout, "load-timeout", "", "KaTeX load timeout (e.g., 30s)")
	fs.StringVar(&f.browserBin, "browser-bin", "", "Chrome/Chromium executable")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "margin in inches (0.25-3.0)")
}

// addAssetFlags adds host page asset flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "host page style name")
	fs.StringVar(&f.template, "template", "", "host page template name")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory with custom styles/ and templates/")
	fs.StringVar(&f.highlight, "highlight", "", "chroma style for the LaTeX source")
}

// addConvertFlags registers the flags shared by convert and batch.
func addConvertFlags(fs *flag.FlagSet, f *convertFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVarP(&f.format, "format", "F", "", "output format: html, png, pdf, tex, json")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "model and browser timeout (e.g., 30s, 2m)")

	addCommonFlags(fs, &f.common)
	addLLMFlags(fs, &f.llm)
	addRendererFlags(fs, &f.renderer)
	addPageFlags(fs, &f.page)
	addAssetFlags(fs, &f.assets)
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &convertFlags{}
	addConvertFlags(fs, f)
	fs.Usage = func() { printConvertUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseBatchFlags parses batch command flags and returns positional args.
func parseBatchFlags(args []string, usage io.Writer) (*batchFlags, []string, error) {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &batchFlags{}
	addConvertFlags(fs, &f.convertFlags)
	fs.StringVarP(&f.file, "file", "f", "", "prompts file (one per line) or YAML job list")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.Usage = func() { printBatchUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseReplFlags parses repl command flags.
func parseReplFlags(args []string, usage io.Writer) (*replFlags, error) {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &replFlags{}
	fs.StringVarP(&f.timeout, "timeout", "t", "", "model timeout (e.g., 30s)")
	addCommonFlags(fs, &f.common)
	addLLMFlags(fs, &f.llm)
	fs.Usage = func() { printReplUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
