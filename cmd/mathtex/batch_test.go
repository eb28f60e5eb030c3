package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-mathtex"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ----- TestLoadJobs - Prompt file formats -----

func TestLoadJobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("line file skips blanks and comments", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, filepath.Join(dir, "prompts.txt"), "# header\nfirst\n\n  second  \n#skip\n")
		jobs, err := loadJobs(path, nil)
		if err != nil {
			t.Fatalf("loadJobs() error = %v", err)
		}
		if len(jobs) != 2 || jobs[0].Text != "first" || jobs[1].Text != "second" {
			t.Errorf("jobs = %+v", jobs)
		}
	})

	t.Run("yaml job list", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, filepath.Join(dir, "jobs.yaml"), "- text: euler identity\n  output: euler.json\n  format: json\n- text: pythagoras\n")
		jobs, err := loadJobs(path, nil)
		if err != nil {
			t.Fatalf("loadJobs() error = %v", err)
		}
		if len(jobs) != 2 {
			t.Fatalf("got %d jobs, want 2", len(jobs))
		}
		if jobs[0].Output != "euler.json" || jobs[0].Format != "json" || jobs[1].Text != "pythagoras" {
			t.Errorf("jobs = %+v", jobs)
		}
	})

	t.Run("yaml unknown key", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, filepath.Join(dir, "bad.yml"), "- text: a\n  model: b\n")
		if _, err := loadJobs(path, nil); !errors.Is(err, ErrReadInput) {
			t.Errorf("error = %v, want ErrReadInput", err)
		}
	})

	t.Run("yaml job without text", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, filepath.Join(dir, "empty-text.yaml"), "- output: a.tex\n")
		if _, err := loadJobs(path, nil); !errors.Is(err, ErrNoInput) {
			t.Errorf("error = %v, want ErrNoInput", err)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		t.Parallel()

		jobs, err := loadJobs("-", strings.NewReader("a\nb\n"))
		if err != nil {
			t.Fatalf("loadJobs() error = %v", err)
		}
		if len(jobs) != 2 {
			t.Errorf("jobs = %+v", jobs)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := loadJobs(filepath.Join(dir, "nope.txt"), nil)
		if !errors.Is(err, ErrReadInput) || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want ErrReadInput wrapping ErrNotExist", err)
		}
	})
}

func TestJobOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		job  batchJob
		idx  int
		want string
	}{
		{"numbered default", batchJob{Text: "a"}, 0, filepath.Join("out", "prompt-001.png")},
		{"relative output", batchJob{Text: "a", Output: "eq/one.png"}, 4, filepath.Join("out", "eq", "one.png")},
		{"absolute output", batchJob{Text: "a", Output: "/tmp/x.png"}, 4, "/tmp/x.png"},
	}

	for _, tt := range tests {
		if got := jobOutputPath(tt.job, tt.idx, "out", mathtex.FormatPNG); got != tt.want {
			t.Errorf("%s: jobOutputPath() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, mathtex.MaxPoolSize} {
		if err := validateWorkers(n); err != nil {
			t.Errorf("validateWorkers(%d) = %v, want nil", n, err)
		}
	}
	for _, n := range []int{-1, mathtex.MaxPoolSize + 1} {
		if err := validateWorkers(n); !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) = %v, want ErrInvalidWorkerCount", n, err)
		}
	}
}

// ----- TestRunBatchCmd - Parallel conversion with a fake model -----

func TestRunBatchCmd(t *testing.T) {
	isolateEnv(t)

	t.Run("writes one output per prompt", func(t *testing.T) {
		dir := t.TempDir()
		prompts := writeFile(t, filepath.Join(dir, "prompts.txt"), "alpha\nbeta\ngamma\n")
		out := filepath.Join(dir, "out")

		comp := &scriptedCompleter{}
		env, stdout, _ := newTestEnv(comp, "")
		err := runBatchCmd(context.Background(), []string{"-f", prompts, "-F", "tex", "-o", out, "-w", "2"}, env)
		if err != nil {
			t.Fatalf("runBatchCmd() error = %v", err)
		}

		for i, word := range []string{"alpha", "beta", "gamma"} {
			path := filepath.Join(out, []string{"prompt-001.tex", "prompt-002.tex", "prompt-003.tex"}[i])
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading %s: %v", path, err)
			}
			if !strings.Contains(string(data), word) {
				t.Errorf("%s = %q, want containing %q", path, data, word)
			}
		}
		if len(comp.Prompts()) != 3 {
			t.Errorf("model called %d times, want 3", len(comp.Prompts()))
		}
		if !strings.Contains(stdout.String(), "3 succeeded, 0 failed") {
			t.Errorf("stdout = %q", stdout)
		}
	})

	t.Run("failures are counted per job", func(t *testing.T) {
		dir := t.TempDir()
		prompts := writeFile(t, filepath.Join(dir, "jobs.yaml"), "- text: good\n- text: bad\n")
		comp := &scriptedCompleter{replies: map[string]string{"bad": "not json"}}
		env, _, stderr := newTestEnv(comp, "")

		err := runBatchCmd(context.Background(), []string{"-f", prompts, "-F", "json", "-o", dir}, env)
		if err == nil || !strings.Contains(err.Error(), "1 conversion(s) failed") {
			t.Fatalf("error = %v, want one failure", err)
		}
		if !strings.Contains(stderr.String(), `FAILED "bad"`) {
			t.Errorf("stderr = %q", stderr)
		}
		if _, err := os.Stat(filepath.Join(dir, "prompt-001.json")); err != nil {
			t.Errorf("good job output missing: %v", err)
		}
	})

	t.Run("no prompts file", func(t *testing.T) {
		env, _, _ := newTestEnv(&scriptedCompleter{}, "")
		err := runBatchCmd(context.Background(), []string{"-F", "tex"}, env)
		if !errors.Is(err, ErrNoInput) {
			t.Errorf("error = %v, want ErrNoInput", err)
		}
	})

	t.Run("invalid workers", func(t *testing.T) {
		env, _, _ := newTestEnv(&scriptedCompleter{}, "")
		err := runBatchCmd(context.Background(), []string{"-f", "x.txt", "-w", "99"}, env)
		if !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("error = %v, want ErrInvalidWorkerCount", err)
		}
	})
}

func TestCountResults(t *testing.T) {
	t.Parallel()

	got := countResults([]ConversionResult{
		{Text: "a"},
		{Text: "b", Fallback: true},
		{Text: "c", Err: errors.New("boom")},
	})
	if got.Succeeded != 2 || got.Failed != 1 || got.Fallback != 1 {
		t.Errorf("countResults() = %+v", got)
	}
}
