package process

import "testing"

// Real termination is covered by the browser integration tests; unit tests
// only check that invalid pids are ignored. PID 0 would address the test's
// own process group and is never sent.
func TestKillProcessGroup_InvalidPID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pid  int
	}{
		{"nonexistent", 999999999},
		{"zero", 0},
		{"negative", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			KillProcessGroup(tt.pid)
		})
	}
}
