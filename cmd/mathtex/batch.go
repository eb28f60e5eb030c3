package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-mathtex"
	"github.com/alnah/go-mathtex/internal/fileutil"
	"github.com/alnah/go-mathtex/internal/yamlutil"
	flag "github.com/spf13/pflag"
)

// ErrConverterInit marks jobs that never ran because no converter could be created.
var ErrConverterInit = errors.New("failed to initialize converter")

// batchJob is one prompt of a batch.
// In a YAML job list Output and Format are optional per job.
type batchJob struct {
	Text   string `yaml:"text"`
	Output string `yaml:"output"`
	Format string `yaml:"format"`
}

// ConversionResult holds the outcome of a single job.
type ConversionResult struct {
	Text       string
	OutputPath string
	Fallback   bool
	Err        error
	Duration   time.Duration
}

// runBatchCmd converts every prompt of a file in parallel.
func runBatchCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseBatchFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	cfg, envCfg, err := loadSettings(flags.common.config)
	if err != nil {
		return err
	}
	mergeFlags(&flags.convertFlags, cfg)

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	if err := validateWorkers(workers); err != nil {
		return err
	}

	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}

	source := flags.file
	if source == "" && len(positional) > 0 {
		source = positional[0]
	}
	if source == "" {
		return fmt.Errorf("%w: pass a prompts file with -f", ErrNoInput)
	}
	jobs, err := loadJobs(source, env.Stdin)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no prompts in %s", ErrNoInput, source)
	}

	outDir := flags.output
	if outDir == "" {
		outDir = cfg.Output.DefaultDir
	}
	if outDir == "" {
		outDir = "."
	}

	logger := newLogger(env.Stderr, flags.common)
	opts, err := buildOptions(cfg, logger, env)
	if err != nil {
		return err
	}

	pool := mathtex.NewConverterPool(mathtex.ResolvePoolSize(workers), opts...)
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Warn("closing converters", "err", cerr)
		}
	}()
	logger.Debug("batch", "jobs", len(jobs), "workers", pool.Size(), "format", format)

	results := convertBatch(ctx, pool, jobs, outDir, format)

	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failed > 0 {
		return fmt.Errorf("%d conversion(s) failed", failed)
	}
	return nil
}

// validateWorkers rejects counts outside [0, MaxPoolSize]; 0 means auto.
func validateWorkers(n int) error {
	if n < 0 || n > mathtex.MaxPoolSize {
		return fmt.Errorf("%w: %d (must be 0-%d, 0 = auto)", ErrInvalidWorkerCount, n, mathtex.MaxPoolSize)
	}
	return nil
}

// loadJobs reads a YAML job list (.yaml, .yml) or a prompts file with one
// prompt per line. In line files blank lines and lines starting with # are
// skipped. "-" reads a prompts file from stdin.
func loadJobs(path string, stdin io.Reader) ([]batchJob, error) {
	var data []byte
	var err error
	if path == stdoutPath {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- user-provided prompts file
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		var jobs []batchJob
		if err := yamlutil.UnmarshalStrict(data, &jobs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
		}
		for i, j := range jobs {
			if strings.TrimSpace(j.Text) == "" {
				return nil, fmt.Errorf("%w: job %d has no text", ErrNoInput, i+1)
			}
		}
		return jobs, nil
	}

	var jobs []batchJob
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 4096), maxPromptBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		jobs = append(jobs, batchJob{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	return jobs, nil
}

// jobOutputPath returns where job i is written: its own relative output
// under outDir, or prompt-NNN.<ext>.
func jobOutputPath(job batchJob, i int, outDir string, f mathtex.Format) string {
	if job.Output != "" {
		if filepath.IsAbs(job.Output) {
			return job.Output
		}
		return filepath.Join(outDir, job.Output)
	}
	return filepath.Join(outDir, fmt.Sprintf("prompt-%03d%s", i+1, f.Extension()))
}

// convertBatch processes jobs concurrently using the converter pool.
func convertBatch(ctx context.Context, pool *mathtex.ConverterPool, jobs []batchJob, outDir string, format mathtex.Format) []ConversionResult {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(jobs))

	results := make([]ConversionResult, len(jobs))
	var wg sync.WaitGroup
	queue := make(chan int, len(jobs))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire()
			if err != nil {
				// Converter creation failed, mark remaining jobs as failed
				for idx := range queue {
					results[idx] = ConversionResult{
						Text: jobs[idx].Text,
						Err:  fmt.Errorf("%w: %w", ErrConverterInit, err),
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{Text: jobs[idx].Text, Err: ctx.Err()}
					continue
				}
				results[idx] = convertJob(ctx, conv, jobs[idx], idx, outDir, format)
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

// convertJob runs a single job and writes its output.
func convertJob(ctx context.Context, conv *mathtex.Converter, job batchJob, idx int, outDir string, format mathtex.Format) ConversionResult {
	start := time.Now()
	result := ConversionResult{Text: job.Text}

	f := format
	if job.Format != "" {
		parsed, err := mathtex.ParseFormat(job.Format)
		if err != nil {
			result.Err = err
			result.Duration = time.Since(start)
			return result
		}
		f = parsed
	}
	result.OutputPath = jobOutputPath(job, idx, outDir, f)

	res, err := conv.Convert(ctx, job.Text, f)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Fallback = res.Fallback

	if err := fileutil.WriteFileAtomic(result.OutputPath, res.Output, filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
	Fallback  int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		switch {
		case r.Err != nil:
			summary.Failed++
		case r.Fallback:
			summary.Succeeded++
			summary.Fallback++
		default:
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs batch results and returns the failure count.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %q: %v%s\n", r.Text, r.Err, hintFor(r.Err))
			continue
		}

		if quiet {
			continue
		}

		suffix := ""
		if r.Fallback {
			suffix = " [fallback]"
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%q -> %s (%v)%s\n", r.Text, r.OutputPath, r.Duration.Round(time.Millisecond), suffix)
		} else {
			fmt.Fprintf(env.Stdout, "Created %s%s\n", r.OutputPath, suffix)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
