package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/backlight-controller/internal/status"
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
	"onoff": status.OnOff,
	"stateClass": func(s string) string {
		switch s {
		case "ON", "ASSERTED":
			return "on"
		case "OFF", "RELEASED":
			return "off"
		}
		return "unknown"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Backlight Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Backlight Controller ({{.Role}})</h1>

<h2>State</h2>
<table>
<tr><th>Backlight</th><td id="backlight" class="{{stateClass .Backlight}}">{{.Backlight}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
<tr><th>Clock</th><td id="clock">{{.ClockMs}}ms</td></tr>
{{with .Primary}}<tr><th>Motion</th><td class="{{stateClass (onoff .Motion)}}">{{onoff .Motion}}</td></tr>
<tr><th>Force-on</th><td class="{{stateClass (onoff .ForceOn)}}">{{onoff .ForceOn}}</td></tr>
<tr><th>Indicator</th><td>{{onoff .Indicator}}</td></tr>
<tr><th>Off deadline</th><td>{{.DeadlineMs}}ms</td></tr>
<tr><th>Remaining</th><td id="remaining">{{.RemainingMs}}ms</td></tr>{{end}}
{{with .Secondary}}<tr><th>Mirror in</th><td class="{{stateClass (onoff .Mirror)}}">{{onoff .Mirror}}</td></tr>
<tr><th>Primary reset</th><td class="{{stateClass .Reset}}">{{.Reset}}</td></tr>
<tr><th>Sequencer</th><td>{{.Sequencer}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTT.Connected}}connected{{else}}disconnected{{end}}">{{if .MQTT.Connected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.MQTT.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Backlight ON</th><td>{{.Counts.BacklightOn}}</td></tr>
<tr><th>Backlight OFF</th><td>{{.Counts.BacklightOff}}</td></tr>
<tr><th>Force-on</th><td>{{.Counts.ForceOn}}</td></tr>
<tr><th>Motion</th><td>{{.Counts.Motion}}</td></tr>
<tr><th>Reset pulses</th><td>{{.Counts.ResetPulses}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Holds</th><td>{{.Config.ShortHoldMs}}ms / {{.Config.LongHoldMs}}ms</td></tr>
<tr><th>Reset pulse</th><td>{{.Config.ResetPulseMs}}ms after {{.Config.ResetWaitMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
<script>
(function() {
  var backlight = document.getElementById("backlight");
  var clock = document.getElementById("clock");
  var remaining = document.getElementById("remaining");

  function refresh() {
    fetch("/index.json").then(function(r) { return r.json(); }).then(function(msg) {
      var s = msg.status;
      backlight.textContent = s.backlight;
      backlight.className = s.backlight === "ON" ? "on" : s.backlight === "OFF" ? "off" : "unknown";
      clock.textContent = s.clock_ms + "ms";
      if (remaining && s.primary) {
        remaining.textContent = s.primary.remaining_ms + "ms";
      }
    }).catch(function() {});
  }

  setInterval(refresh, 1000);
})();
</script>
</body>
</html>
`

type pageData struct {
	status.StatusInner
	Uptime time.Duration
}

// renderHTML buffers the page so a template error can still become a 500.
func renderHTML(w io.Writer, snap status.Snapshot) error {
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, pageData{StatusInner: status.Inner(snap), Uptime: snap.Uptime()}); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
