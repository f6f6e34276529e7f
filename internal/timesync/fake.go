package timesync

import (
	"context"
	"sync"
)

// FakeFetcher returns a fixed datetime or error.
type FakeFetcher struct {
	mu       sync.Mutex
	Datetime string
	Err      error
	calls    int
}

// Fetch returns the configured result.
func (f *FakeFetcher) Fetch(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return "", f.Err
	}
	return f.Datetime, nil
}

// Calls returns how many times Fetch was called.
func (f *FakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
