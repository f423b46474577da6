// Package report renders the self-contained HTML status document
// named in §4.7: one row per child (label, group, pid, last-start
// time, time-since-last-start, restart count, command line), plus the
// supervisor's effective parameters, with resource columns appended
// only when a probe is available.
package report

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"metasys/internal/journal"
	"metasys/internal/proctable"
	"metasys/internal/resourceprobe"
)

// ChildRow is one rendered line of the report.
type ChildRow struct {
	Label        string
	Group        string
	Pid          int
	State        string
	LastStarted  time.Time
	Uptime       string
	RestartCount int
	Command      string

	HasResource bool
	CPUPercent  float64
	MemPercent  float64
	VSZKiB      uint64
	RSSKiB      uint64
	ResState    string

	RecentEvents []journal.Event
}

// Params carries the supervisor's effective configuration for display.
type Params struct {
	Description  string
	StartDelay   time.Duration
	RestartDelay time.Duration
	TermWait     time.Duration
	SysReport    string
	MTAHost      string
}

// Snapshot is everything the renderer needs, assembled by the
// supervisor from its current state each time a report is due.
type Snapshot struct {
	GeneratedAt    time.Time
	SupervisorUp   time.Time
	Params         Params
	Rows           []ChildRow
	HasAnyResource bool
}

// BuildSnapshot walks the process table in launch order, attaching a
// resource sample (when probe is non-nil) and the most recent journal
// events for each child.
func BuildSnapshot(t *proctable.Table, ordering *proctable.Ordering, params Params, probe resourceprobe.Probe, j *journal.Journal, startedAt time.Time, now time.Time) Snapshot {
	snap := Snapshot{GeneratedAt: now, SupervisorUp: startedAt, Params: params}

	for _, label := range ordering.LaunchOrder() {
		c, ok := t.Get(label)
		if !ok {
			continue
		}

		row := ChildRow{
			Label:        c.Label,
			Group:        c.Group,
			Pid:          c.Pid,
			State:        c.State().String(),
			LastStarted:  c.LastStarted,
			RestartCount: c.RestartCount,
			Command:      strings.Join(c.Command, " "),
		}

		if !c.LastStarted.IsZero() {
			row.Uptime = now.Sub(c.LastStarted).Round(time.Second).String()
		} else {
			row.Uptime = "never started"
		}

		if probe != nil && c.State() == proctable.Running && c.Pid > 0 {
			if sample, err := probe.Sample(c.Pid); err == nil {
				row.HasResource = true
				row.CPUPercent = sample.CPUPercent
				row.MemPercent = sample.MemPercent
				row.VSZKiB = sample.VSZKiB
				row.RSSKiB = sample.RSSKiB
				row.ResState = sample.State
				snap.HasAnyResource = true
			}
		}

		if j != nil {
			if events, err := j.Recent(c.Label, 5); err == nil {
				row.RecentEvents = events
			}
		}

		snap.Rows = append(snap.Rows, row)
	}

	return snap
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"fmtTime": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.Format("2006-01-02 15:04:05")
	},
}).Parse(reportHTML))

// RenderHTML produces the self-contained HTML document for snap.
func RenderHTML(snap Snapshot) (string, error) {
	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, snap); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return sb.String(), nil
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>metasys status report</title>
<style>
body { font-family: sans-serif; font-size: 13px; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 3px 8px; text-align: left; }
th { background: #eee; }
</style>
</head>
<body>
<h2>{{.Params.Description}}</h2>
<p>Generated {{fmtTime .GeneratedAt}}, supervisor up since {{fmtTime .SupervisorUp}}</p>
<p>
start_delay={{.Params.StartDelay}} restart_delay={{.Params.RestartDelay}}
term_wait={{.Params.TermWait}} sys_report={{.Params.SysReport}} mta={{.Params.MTAHost}}
</p>
<table>
<tr>
<th>Label</th><th>Group</th><th>Pid</th><th>State</th><th>Last Started</th>
<th>Uptime</th><th>Restarts</th><th>Command</th>
{{if .HasAnyResource}}<th>CPU%</th><th>Mem%</th><th>VSZ</th><th>RSS</th><th>Proc State</th>{{end}}
</tr>
{{range .Rows}}
<tr>
<td>{{.Label}}</td><td>{{.Group}}</td><td>{{.Pid}}</td><td>{{.State}}</td>
<td>{{fmtTime .LastStarted}}</td><td>{{.Uptime}}</td><td>{{.RestartCount}}</td>
<td><code>{{.Command}}</code></td>
{{if $.HasAnyResource}}
{{if .HasResource}}
<td>{{printf "%.1f" .CPUPercent}}</td><td>{{printf "%.1f" .MemPercent}}</td>
<td>{{.VSZKiB}}</td><td>{{.RSSKiB}}</td><td>{{.ResState}}</td>
{{else}}
<td>-</td><td>-</td><td>-</td><td>-</td><td>-</td>
{{end}}
{{end}}
</tr>
{{end}}
</table>
{{range .Rows}}{{if .RecentEvents}}
<h3>Recent events: {{.Label}}</h3>
<ul>
{{range .RecentEvents}}<li>{{fmtTime .Time}} {{.Kind}}{{if .Detail}} ({{.Detail}}){{end}}</li>
{{end}}</ul>
{{end}}{{end}}
</body>
</html>
`
