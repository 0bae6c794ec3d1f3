package health

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>PetAdopt · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta http-equiv="refresh" content="15">
  <style>
    :root { --brand: #E07A2E; --dark: #3B2A1E; --bg: #FFF7F0; --muted: #8A7A6E; --ok: #2F855A; --err: #C53030; }
    body { background: var(--bg); color: var(--dark); font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; margin: 0; padding: 40px 20px; }
    .wrap { max-width: 960px; margin: 0 auto; }
    h1 { font-size: 40px; margin: 0 0 8px 0; color: {{if .OK}}var(--brand){{else}}var(--err){{end}}; }
    .sub { color: var(--muted); font-weight: 600; margin-bottom: 28px; }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr)); gap: 16px; }
    .card { background: #fff; border-radius: 18px; padding: 24px; box-shadow: 0 10px 30px -12px rgba(224, 122, 46, 0.25); }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 800; letter-spacing: 2px; color: var(--muted); margin-bottom: 14px; }
    .big { font-size: 34px; font-weight: 800; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; border-bottom: 1px solid #f3e9e1; font-size: 14px; font-weight: 600; }
    .row:last-child { border-bottom: none; }
    .ok { color: var(--ok); } .err { color: var(--err); }
    .last { margin-top: 16px; font-family: monospace; font-size: 13px; color: var(--muted); }
    a { color: var(--brand); }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>{{if .OK}}All Systems Operational{{else}}System Issues Detected{{end}}</h1>
    <div class="sub">{{.Report.Service}} · {{.Report.Runtime.Platform}} · {{.Report.Runtime.GoVersion}}</div>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big">{{.Report.Traffic.TotalRequests}}</div>
        <div class="row"><span>Successful</span><span class="ok">{{.Report.Traffic.SuccessCount}}</span></div>
        <div class="row"><span>Failed</span><span class="err">{{.Report.Traffic.FailedCount}}</span></div>
        <div class="row"><span>Success rate</span><span>{{.Report.Traffic.SuccessRate}}%</span></div>
        <div class="row"><span>Avg latency</span><span>{{.Report.Traffic.AvgResponseTime}} ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big">{{.Uptime}}</div>
        <div class="row"><span>Heap in use</span><span>{{.Report.Runtime.HeapMB}} MB</span></div>
        <div class="row"><span>Allocated</span><span>{{.Report.Runtime.AllocMB}} MB</span></div>
        <div class="row"><span>Goroutines</span><span>{{.Report.Runtime.Goroutines}}</span></div>
      </div>
      <div class="card">
        <div class="label">Dependencies</div>
        {{range .Deps}}<div class="row"><span>{{.Name}}</span><span class="{{if .Healthy}}ok{{else}}err{{end}}">{{.Status}}{{if .PingMs}} · {{.PingMs}} ms{{end}}</span></div>
        {{end}}
      </div>
    </div>
    {{with .Report.Traffic.LastRequest}}<div class="last">last inbound: {{index . "method"}} {{index . "path"}} from {{index . "ip"}}</div>{{end}}
    <div class="last"><a href="/health/json">json</a> · <a href="/health/errors">error log</a></div>
  </div>
</body>
</html>`))

type depRow struct {
	Name    string
	Status  string
	PingMs  int64
	Healthy bool
}

// RenderDashboard returns the HTML status page for GET /.
func RenderDashboard(r Report) (string, error) {
	deps := make([]depRow, 0, len(r.Dependencies))
	for name, d := range r.Dependencies {
		row := depRow{Name: name, Status: d.Status, Healthy: d.Status == "connected" || d.Status == "reachable"}
		if d.PingMs != nil {
			row.PingMs = *d.PingMs
		}
		deps = append(deps, row)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

	var buf bytes.Buffer
	err := dashboardTmpl.Execute(&buf, map[string]interface{}{
		"Report": r,
		"OK":     r.Status == "ok",
		"Deps":   deps,
		"Uptime": formatUptime(r.Runtime.UptimeSeconds),
	})
	return buf.String(), err
}

func formatUptime(s int64) string {
	d, h, m := s/86400, (s%86400)/3600, (s%3600)/60
	if d > 0 {
		return fmt.Sprintf("%dd %dh %dm", d, h, m)
	}
	return fmt.Sprintf("%dh %dm %ds", h, m, s%60)
}
