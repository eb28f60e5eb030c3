package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-mathtex"
)

// scriptedCompleter answers each prompt with a JSON reply derived from it,
// or with a scripted reply when one is set for the prompt.
type scriptedCompleter struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
	prompts []string
}

func (s *scriptedCompleter) Complete(_ context.Context, _, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, user)
	if s.err != nil {
		return "", s.err
	}
	if r, ok := s.replies[user]; ok {
		return r, nil
	}
	return fmt.Sprintf(`{"latex": "\\text{%s}", "explanation": "echo of %s"}`, user, user), nil
}

func (s *scriptedCompleter) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// fixedNow is the clock used by test environments.
var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

// newTestEnv returns an environment with captured output and comp as the
// model transport.
func newTestEnv(comp mathtex.Completer, stdin string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{
		Now:     func() time.Time { return fixedNow },
		Stdin:   strings.NewReader(stdin),
		Stdout:  &stdout,
		Stderr:  &stderr,
		Options: []mathtex.Option{mathtex.WithCompleter(comp)},
	}, &stdout, &stderr
}

// isolateEnv clears variables that would leak host configuration into a
// test. Tests calling it cannot run in parallel.
func isolateEnv(t *testing.T) {
	t.Helper()
	for name := range knownEnvVars {
		t.Setenv(name, "")
	}
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
}
