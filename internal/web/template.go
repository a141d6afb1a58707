package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/bangbang/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"duration": func(d time.Duration) string {
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
	"stateName": status.StateName,
	"utc": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Relay</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Relay</h1>
{{$state := stateName .State}}
<table>
<tr><th>State</th><td class="{{if eq $state "ON"}}on{{else}}off{{end}}">{{$state}}</td></tr>
<tr><th>Last transition</th><td>{{utc .LastTransition}}</td></tr>
<tr><th>Locked for</th><td>{{duration .Remaining}}</td></tr>
<tr><th>Minimum dwell</th><td>{{duration .Dwell}}</td></tr>
</table>
<form method="post" action="/bang"><button type="submit">Toggle</button></form>
<table>
<tr><th>Switched on</th><td>{{.Counts.ToOn}}</td></tr>
<tr><th>Switched off</th><td>{{.Counts.ToOff}}</td></tr>
<tr><th>Rejected</th><td>{{.Counts.Rejected}}</td></tr>
<tr><th>Failed</th><td>{{.Counts.Failed}}</td></tr>
</table>
<table>
<tr><th>Uptime</th><td>{{duration .Uptime}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Config.Broker}}){{if .MQTTBuffered}}, {{.MQTTBuffered}} queued{{end}}</td></tr>
<tr><th>Output</th><td>{{.Config.Chip}} pin {{.Config.Pin}}{{if .Config.ActiveLow}} (active low){{end}}</td></tr>
{{with .Network}}<tr><th>Network</th><td>{{.Type}} {{.IP}} ({{.Status}})</td></tr>{{end}}
</table>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	indexTmpl.Execute(w, snap)
}
