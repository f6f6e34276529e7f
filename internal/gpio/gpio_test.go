package gpio

import (
	"errors"
	"testing"

	"github.com/sweeney/dumb-door/internal/indicator"
)

func TestFakeButtonRead(t *testing.T) {
	f := NewFakeButton(false, true, false)

	want := []bool{false, true, false, false}
	for i, w := range want {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("read %d: expected %v, got %v", i, w, got)
		}
	}
	if f.Reads() != 4 {
		t.Errorf("expected 4 reads, got %d", f.Reads())
	}
}

func TestFakeButtonNoSamples(t *testing.T) {
	f := NewFakeButton()
	if _, err := f.Read(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeButtonReadError(t *testing.T) {
	f := NewFakeButton(true)
	f.SetReadError(errors.New("line gone"))

	if _, err := f.Read(); err == nil {
		t.Fatal("expected read error")
	}

	f.SetReadError(nil)
	v, err := f.Read()
	if err != nil || !v {
		t.Errorf("expected (true, nil) after clearing error, got (%v, %v)", v, err)
	}
}

func TestFakeButtonClose(t *testing.T) {
	f := NewFakeButton(false)
	if f.Closed() {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
	if !f.Closed() {
		t.Error("should be closed after Close()")
	}
}

func TestFakeLEDRecords(t *testing.T) {
	f := NewFakeLED()
	if f.Last() != indicator.Off {
		t.Errorf("expected off before any colour, got %s", f.Last())
	}

	for _, c := range []indicator.Color{indicator.Blue, indicator.Off, indicator.Blue} {
		if err := f.SetColor(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := f.Count(indicator.Blue); got != 2 {
		t.Errorf("expected 2 blue, got %d", got)
	}
	if f.Last() != indicator.Blue {
		t.Errorf("expected last colour blue, got %s", f.Last())
	}
	if len(f.Colors()) != 3 {
		t.Errorf("expected 3 colours, got %d", len(f.Colors()))
	}
}

func TestFakeLEDImplementsOutput(t *testing.T) {
	var _ indicator.Output = NewFakeLED()
}

func TestLevel(t *testing.T) {
	tests := []struct {
		on, activeLow bool
		want          int
	}{
		{true, false, 1},
		{false, false, 0},
		{true, true, 0},
		{false, true, 1},
	}
	for _, tt := range tests {
		if got := level(tt.on, tt.activeLow); got != tt.want {
			t.Errorf("level(%v, %v) = %d, want %d", tt.on, tt.activeLow, got, tt.want)
		}
	}
}

func TestLit(t *testing.T) {
	if lit(0) || lit(127) {
		t.Error("components below 128 should be dark")
	}
	if !lit(128) || !lit(255) {
		t.Error("components from 128 should be lit")
	}
}
