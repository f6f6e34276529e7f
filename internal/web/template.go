package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/dumb-door/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"lockClass": func(label string) string {
		switch label {
		case "locked":
			return "locked"
		case "open":
			return "open"
		}
		return "unknown"
	},
	"rfc3339": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format(time.RFC3339)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Config.Device}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.locked { color: green; font-weight: bold; }
.open { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>{{.Config.Device}}<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Door</h2>
<table>
<tr><th>Lock</th><td id="lock" class="{{lockClass .LockLabel}}">{{.LockLabel}}</td></tr>
<tr><th>Phase</th><td id="phase">{{.Phase}}</td></tr>
<tr><th>Indicator</th><td id="indicator">{{.Indicator}}</td></tr>
<tr><th>Last toggle</th><td id="last-toggle">{{rfc3339 .LastToggle}}</td></tr>
{{if .LastError}}<tr><th>Last error</th><td id="last-error">{{.LastError}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>WLAN</th><td id="network">{{.Connectivity}}{{if .Config.SSID}} ({{.Config.SSID}}){{end}}</td></tr>
<tr><th>IP</th><td id="ip">{{.IP}}</td></tr>
<tr><th>Datetime</th><td id="datetime">{{.Datetime}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
{{if .Config.Broker}}<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
</table>

<h2>Activity</h2>
<table>
<tr><th>Activations</th><td id="activations">{{.Counts.Activations}}</td></tr>
<tr><th>Toggles</th><td id="toggles">{{.Counts.Toggles}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Policy</th><td>{{.Config.Policy}}{{if eq .Config.Policy "stable"}} ({{.Config.DebounceMs}}ms){{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }
  function setText(id, v) {
    var el = document.getElementById(id);
    if (el && v !== undefined) { el.textContent = v; }
  }
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (msg.type !== "status") { return; }
        var d = msg.data;
        var lockEl = document.getElementById("lock");
        lockEl.textContent = d.lock;
        lockEl.className = d.lock === "locked" ? "locked" : d.lock === "open" ? "open" : "unknown";
        setText("phase", d.phase);
        setText("indicator", "(" + d.indicator.a + ", " + d.indicator.b + ")");
        setText("last-toggle", d.last_toggle || "never");
        setText("network", d.network.state + (d.network.ssid ? " (" + d.network.ssid + ")" : ""));
        setText("ip", d.network.ip || "");
        setText("datetime", d.datetime || "");
        setText("activations", d.counts.activations);
        setText("toggles", d.counts.toggles);
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() and LockLabel() methods but the template wants fields.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		LockLabel string
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		LockLabel: snap.LockLabel(),
	}
	return indexTmpl.Execute(w, data)
}
