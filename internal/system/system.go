// Package system restarts the daemon after a fatal error.
package system

import (
	"fmt"
	"os"
	"sync"
	"syscall"
)

// Resetter restarts the process. A successful Reset does not return.
type Resetter interface {
	Reset(cause error) error
}

// ExecResetter replaces the running process with a fresh copy of itself, so
// no in-memory state survives the reset.
type ExecResetter struct {
	// Path defaults to the running executable.
	Path string
	Args []string
	Env  []string

	// Exec and Exit are replaced in tests.
	Exec func(argv0 string, argv []string, envv []string) error
	Exit func(code int)
}

// NewExecResetter creates a resetter for the current process.
func NewExecResetter() *ExecResetter {
	return &ExecResetter{
		Args: os.Args,
		Env:  os.Environ(),
		Exec: syscall.Exec,
		Exit: os.Exit,
	}
}

// Reset re-executes the binary. If exec fails the process exits with status 1
// and leaves the restart to the service supervisor.
func (r *ExecResetter) Reset(cause error) error {
	path := r.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			r.Exit(1)
			return fmt.Errorf("resolve executable: %w", err)
		}
		path = exe
	}

	err := r.Exec(path, r.Args, r.Env)
	// Exec only returns on failure.
	r.Exit(1)
	return fmt.Errorf("exec %s: %w", path, err)
}

// FakeResetter records reset requests. Safe for concurrent use.
type FakeResetter struct {
	mu     sync.Mutex
	causes []error
	Err    error
}

func (f *FakeResetter) Reset(cause error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.causes = append(f.causes, cause)
	return f.Err
}

// Causes returns the errors passed to Reset in order.
func (f *FakeResetter) Causes() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.causes...)
}
