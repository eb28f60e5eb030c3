package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mathtex"
	"github.com/alnah/go-mathtex/internal/fileutil"
	flag "github.com/spf13/pflag"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrNoInput            = errors.New("no input specified")
	ErrReadInput          = errors.New("failed to read input")
	ErrWriteOutput        = errors.New("failed to write output")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// filePermissions is rw-r--r--: exported documents are meant to be shared.
const filePermissions = 0o644

// maxPromptBytes bounds a prompt read from stdin.
const maxPromptBytes = 64 << 10

// stdoutPath selects standard output as the destination.
const stdoutPath = "-"

// runConvertCmd converts one description passed as arguments or on stdin.
func runConvertCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	cfg, _, err := loadSettings(flags.common.config)
	if err != nil {
		return err
	}
	mergeFlags(flags, cfg)

	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}

	text, err := readPrompt(positional, env.Stdin)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common)
	opts, err := buildOptions(cfg, logger, env)
	if err != nil {
		return err
	}

	conv, err := mathtex.NewConverter(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conv.Close(); cerr != nil {
			logger.Warn("closing browser", "err", cerr)
		}
	}()

	start := env.Now()
	res, err := conv.Convert(ctx, text, format)
	if err != nil {
		return err
	}
	if res.Fallback {
		logger.Warn("engine could not typeset the reply, exported fallback text", "err", res.RenderErr)
	}

	dest := resolveOutputPath(flags.output, cfg.Output.DefaultDir, format, env.Now)
	if err := writeOutput(dest, res.Output, env.Stdout); err != nil {
		return err
	}

	if dest != stdoutPath && !flags.common.quiet {
		if flags.common.verbose {
			fmt.Fprintf(env.Stdout, "%s (%v)\n", dest, env.Now().Sub(start).Round(time.Millisecond))
			fmt.Fprintf(env.Stdout, "  latex: %s\n  explanation: %s\n", res.Result.LaTeX, res.Result.Explanation)
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", dest)
		}
	}
	return nil
}

// readPrompt joins the positional arguments, or reads stdin when there are
// none or the only argument is "-".
func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == stdoutPath) {
		text := strings.Join(args, " ")
		if strings.TrimSpace(text) == "" {
			return "", ErrNoInput
		}
		return text, nil
	}

	if stdin == nil {
		return "", ErrNoInput
	}
	data, err := io.ReadAll(io.LimitReader(stdin, maxPromptBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	if len(data) > maxPromptBytes {
		return "", fmt.Errorf("%w: stdin exceeds %d bytes", ErrReadInput, maxPromptBytes)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", ErrNoInput
	}
	return text, nil
}

// resolveOutputPath picks where the export goes.
//   - "-" is stdout
//   - an existing directory or a path ending in a separator gets a
//     timestamped file name
//   - any other value is a file path
//
// Without -o, text formats go to stdout unless a default directory is
// configured; page formats always get a file.
func resolveOutputPath(flagOutput, defaultDir string, f mathtex.Format, now func() time.Time) string {
	if flagOutput == stdoutPath {
		return stdoutPath
	}
	if flagOutput != "" {
		if isDirTarget(flagOutput) {
			return filepath.Join(flagOutput, defaultFileName(f, now()))
		}
		return flagOutput
	}
	if defaultDir == "" && !f.NeedsRenderer() {
		return stdoutPath
	}
	return filepath.Join(defaultDir, defaultFileName(f, now()))
}

// isDirTarget reports whether p names a directory.
func isDirTarget(p string) bool {
	if strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(os.PathSeparator)) {
		return true
	}
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// defaultFileName returns "mathtex-YYYYMMDD-HHMMSS.<ext>".
func defaultFileName(f mathtex.Format, t time.Time) string {
	return "mathtex-" + t.Format("20060102-150405") + f.Extension()
}

// writeOutput writes data to dest, or to stdout for "-".
func writeOutput(dest string, data []byte, stdout io.Writer) error {
	if dest == stdoutPath {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}
	if err := fileutil.WriteFileAtomic(dest, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
