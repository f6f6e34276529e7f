package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Device        string        `json:"device"`
	Phase         string        `json:"phase"`
	Lock          string        `json:"lock"`
	Ready         bool          `json:"ready"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	Datetime      string        `json:"datetime,omitempty"`
	Network       NetworkJSON   `json:"network"`
	Indicator     IndicatorJSON `json:"indicator"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"counts"`
	LastToggle    string        `json:"last_toggle,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// NetworkJSON is the JSON representation of connectivity.
type NetworkJSON struct {
	State string `json:"state"`
	IP    string `json:"ip,omitempty"`
	SSID  string `json:"ssid,omitempty"`
}

// IndicatorJSON is the steady-state LED command.
type IndicatorJSON struct {
	A string `json:"a"`
	B string `json:"b"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	Activations int `json:"activations"`
	Toggles     int `json:"toggles"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs     int64  `json:"poll_ms"`
	Policy     string `json:"policy"`
	DebounceMs int64  `json:"debounce_ms"`
	HTTPAddr   string `json:"http_addr,omitempty"`
}

// LockLabel returns the lock state name, or UNKNOWN before startup completes.
func (s Snapshot) LockLabel() string {
	if !s.LockKnown {
		return "UNKNOWN"
	}
	return s.Lock.String()
}

// BuildInner returns the status details for snap.
func BuildInner(snap Snapshot) StatusInner {
	phase := snap.Phase
	if phase == "" {
		phase = "init"
	}
	inner := StatusInner{
		Device:        snap.Config.Device,
		Phase:         phase,
		Lock:          snap.LockLabel(),
		Ready:         snap.Ready(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Datetime:      snap.Datetime,
		Network: NetworkJSON{
			State: snap.Connectivity,
			IP:    snap.IP,
			SSID:  snap.Config.SSID,
		},
		Indicator: IndicatorJSON{A: snap.Indicator.A.String(), B: snap.Indicator.B.String()},
		MQTT:      MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Activations: snap.Counts.Activations,
			Toggles:     snap.Counts.Toggles,
		},
		LastError: snap.LastError,
		Config: ConfigJSON{
			PollMs:     snap.Config.PollMs,
			Policy:     snap.Config.Policy,
			DebounceMs: snap.Config.DebounceMs,
			HTTPAddr:   snap.Config.HTTPAddr,
		},
	}
	if !snap.LastToggle.IsZero() {
		inner.LastToggle = snap.LastToggle.UTC().Format(time.RFC3339)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: BuildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := BuildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
