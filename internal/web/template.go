package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/rc-indicator/internal/logic"
	"github.com/sweeney/rc-indicator/internal/status"
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
	"stateClass": func(r logic.Reading) string {
		if !r.Signal {
			return "nosignal"
		}
		return strings.ToLower(string(r.State))
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>RC Indicator</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.up { color: green; font-weight: bold; }
.down { color: red; font-weight: bold; }
.idle { color: #888; }
.nosignal { color: orange; }
.safe { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>RC Indicator</h1>

<h2>Channel</h2>
<table>
<tr><th>Fail-safe</th><td{{if .Safe}} class="safe"{{end}}>{{if .Safe}}SAFE{{else}}NORMAL{{end}}</td></tr>
<tr><th>Mode</th><td>{{.Config.Mode}}</td></tr>
<tr><th>State</th><td id="state" class="{{stateClass .Indicator.Reading}}">{{if .Indicator.Reading.Signal}}{{.Indicator.Reading.State}}{{else}}NO SIGNAL{{end}}</td></tr>
{{if and .Indicator.Reading.Signal (eq .Config.Mode "continuous")}}<tr><th>Position</th><td>{{.Indicator.Reading.Percent}}%</td></tr>{{end}}
<tr><th>Pulse</th><td>{{if .Indicator.HasSample}}{{.Indicator.WidthUs}}&micro;s ({{.Indicator.SampleAgeMs}}ms ago){{else}}none{{end}}</td></tr>
{{with .Indicator.Calibration}}<tr><th>Calibration</th><td>{{if .Established}}{{.MinUs}}-{{.MaxUs}}&micro;s{{else}}pending{{end}}</td></tr>{{end}}
<tr><th>Pattern</th><td>{{if .Indicator.Pattern}}{{.Indicator.Pattern}}{{else}}OFF{{end}}{{if .Indicator.Lit}} (lit){{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>Queue</th><td>{{.MQTTQueued}} pending, {{.MQTTDropped}} dropped</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>UP</th><td>{{.Counts.Up}}</td></tr>
<tr><th>DOWN</th><td>{{.Counts.Down}}</td></tr>
<tr><th>IDLE</th><td>{{.Counts.Idle}}</td></tr>
<tr><th>SIGNAL LOST</th><td>{{.Counts.Lost}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Band</th><td>{{.Config.MinUs}}-{{.Config.MaxUs}}&micro;s</td></tr>
<tr><th>Timeout</th><td>{{.Config.TimeoutMs}}ms</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Watchdog</th><td>{{if not .Config.Watchdog}}disabled{{else if .WatchdogStalled}}stalled{{else}}ok{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/health">health</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
