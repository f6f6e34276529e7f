package netlink

import (
	"context"
	"sync"
)

// FakeLink is a scripted Link for tests. Safe for concurrent use.
type FakeLink struct {
	mu sync.Mutex

	// Statuses are returned by successive Status calls; the last repeats.
	Statuses []int
	// Address is returned by CurrentAddress.
	Address string
	// SSIDs are returned by Scan.
	SSIDs []string

	ActivateErr error
	ScanErr     error
	ConnectErr  error
	StatusErr   error
	AddressErr  error

	statusCalls int
	activated   bool
	creds       Credentials
	addr        AddressConfig
}

// NewFakeLink creates a FakeLink that reports statuses and then address.
func NewFakeLink(address string, statuses ...int) *FakeLink {
	return &FakeLink{Address: address, Statuses: statuses}
}

func (f *FakeLink) Activate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activated = true
	return f.ActivateErr
}

func (f *FakeLink) Scan(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.SSIDs...), f.ScanErr
}

func (f *FakeLink) Connect(ctx context.Context, creds Credentials, addr AddressConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = creds
	f.addr = addr
	return f.ConnectErr
}

func (f *FakeLink) Status(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.StatusErr != nil {
		return StatusFail, f.StatusErr
	}
	if len(f.Statuses) == 0 {
		return StatusUp, nil
	}
	i := f.statusCalls - 1
	if i >= len(f.Statuses) {
		i = len(f.Statuses) - 1
	}
	return f.Statuses[i], nil
}

func (f *FakeLink) CurrentAddress(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddressErr != nil {
		return ZeroAddress, f.AddressErr
	}
	return f.Address, nil
}

// StatusCalls returns how many times Status was called.
func (f *FakeLink) StatusCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

// Activated reports whether Activate was called.
func (f *FakeLink) Activated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activated
}

// Joined returns the credentials and address passed to Connect.
func (f *FakeLink) Joined() (Credentials, AddressConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds, f.addr
}
