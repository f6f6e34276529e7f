package metrics

import "sync"

// Fake records metrics in memory. Safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	gauges   map[string]float64
	counters map[string]int
	tags     map[string][][]string
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{gauges: map[string]float64{}, counters: map[string]int{}, tags: map[string][][]string{}}
}

func (f *Fake) Gauge(name string, value float64, tags ...string) {
	f.mu.Lock()
	f.gauges[name] = value
	f.tags[name] = append(f.tags[name], append([]string(nil), tags...))
	f.mu.Unlock()
}

func (f *Fake) Incr(name string, tags ...string) {
	f.mu.Lock()
	f.counters[name]++
	f.tags[name] = append(f.tags[name], append([]string(nil), tags...))
	f.mu.Unlock()
}

// GaugeValue returns the last value of a gauge and whether it was set.
func (f *Fake) GaugeValue(name string) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.gauges[name]
	return v, ok
}

// Count returns a counter's value.
func (f *Fake) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counters[name]
}

// Tags returns the tags sent with each call for name, oldest first.
func (f *Fake) Tags(name string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.tags[name]))
	for i, t := range f.tags[name] {
		out[i] = append([]string(nil), t...)
	}
	return out
}

// LastTags returns the tags of the most recent call for name.
func (f *Fake) LastTags(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.tags[name]
	if len(calls) == 0 {
		return nil
	}
	return append([]string(nil), calls[len(calls)-1]...)
}
