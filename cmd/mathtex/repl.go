package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alnah/go-mathtex"
	flag "github.com/spf13/pflag"
)

// replPrompt is printed before each line unless --quiet.
const replPrompt = "> "

// runReplCmd starts the interactive loop: every line is a new conversion,
// and only the answer to the latest line is printed.
func runReplCmd(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseReplFlags(args, env.Stderr)
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
	mergeLLMFlags(flags.llm, cfg)
	if flags.timeout != "" {
		cfg.LLM.Timeout = flags.timeout
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
	defer func() { _ = conv.Close() }()

	ctl := conv.Controller()
	defer ctl.Close()

	return replLoop(ctx, ctl, env.Stdin, env.Stdout, !flags.common.quiet)
}

// replLoop feeds lines from in to ctl and prints settled states to out.
// At end of input it waits for the outstanding request before returning.
func replLoop(ctx context.Context, ctl *mathtex.Controller, in io.Reader, out io.Writer, prompt bool) error {
	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	var printed uint64
	report := func(st mathtex.State) {
		if !st.Settled() || st.Seq <= printed {
			return
		}
		printed = st.Seq
		printState(out, st)
		if prompt {
			fmt.Fprint(out, replPrompt)
		}
	}

	if prompt {
		fmt.Fprint(out, replPrompt)
	}
	_, changed := ctl.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-changed:
			var st mathtex.State
			st, changed = ctl.Snapshot()
			report(st)

		case line, ok := <-lines:
			if !ok {
				final, err := ctl.Wait(ctx)
				if err == nil {
					report(final)
				}
				return nil
			}

			switch strings.TrimSpace(line) {
			case ":q", ":quit", ":exit":
				return nil
			case "":
				if prompt {
					fmt.Fprint(out, replPrompt)
				}
				continue
			}

			// A reply that settled since the last wakeup is printed before
			// the new request replaces it.
			st, _ := ctl.Snapshot()
			report(st)
			ctl.TriggerWithText(line)
		}
	}
}

// printState writes a settled state.
func printState(out io.Writer, st mathtex.State) {
	switch st.Phase {
	case mathtex.PhaseSucceeded:
		fmt.Fprintf(out, "[%d] %s\n", st.Seq, st.Result.LaTeX)
		if st.Result.Explanation != "" {
			fmt.Fprintf(out, "    %s\n", st.Result.Explanation)
		}
	case mathtex.PhaseFailed:
		fmt.Fprintf(out, "[%d] %s\n", st.Seq, st.Message)
	}
}
