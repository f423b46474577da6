package supervisor

import (
	"fmt"
	"os"
	"time"

	"metasys/internal/config"
	"metasys/internal/proctable"
	"metasys/internal/report"
	"metasys/internal/sysutil"
)

// emitReports is the step after the four phases in §2: fire whichever
// of the two independent timers from §4.7 has come due.
func (sv *Supervisor) emitReports(now time.Time) {
	if sv.cfg.SysReportPeriod > 0 && !sv.nextSysReport.IsZero() && !now.Before(sv.nextSysReport) {
		sv.sendStatusReport(now)
		sv.nextSysReport = report.NextPeriodicBoundary(now, sv.cfg.SysReportPeriod)
	}

	if sv.cfg.HTMLReportPath != "" && !now.Before(sv.nextHTMLReport) {
		sv.writeHTMLReport(now)
		sv.nextHTMLReport = report.NextIntervalBoundary(sv.nextHTMLReport, sv.cfg.HTMLReportInterval, now)
	}
}

func (sv *Supervisor) reportParams() report.Params {
	return report.Params{
		Description:  sv.cfg.Description,
		StartDelay:   sv.cfg.StartDelay,
		RestartDelay: sv.cfg.RestartDelay,
		TermWait:     sv.cfg.TermWait,
		SysReport:    sysReportLabel(sv.cfg.SysReportPeriod),
		MTAHost:      sv.cfg.MTAHost,
	}
}

func sysReportLabel(period time.Duration) string {
	switch period {
	case 86400 * time.Second:
		return "daily"
	case 3600 * time.Second:
		return "hourly"
	default:
		return "none"
	}
}

func (sv *Supervisor) buildSnapshot(now time.Time) report.Snapshot {
	return report.BuildSnapshot(sv.table, sv.ordering, sv.reportParams(), sv.probe, sv.jrnl, sv.StartedAt, now)
}

func (sv *Supervisor) sendStatusReport(now time.Time) {
	html, err := report.RenderHTML(sv.buildSnapshot(now))
	if err != nil {
		sv.logger.Errorf("render status report: %v", err)
		return
	}
	sv.notify("status report", html, true)
}

func (sv *Supervisor) writeHTMLReport(now time.Time) {
	html, err := report.RenderHTML(sv.buildSnapshot(now))
	if err != nil {
		sv.logger.Errorf("render HTML report: %v", err)
		return
	}
	if err := os.WriteFile(sv.cfg.HTMLReportPath, []byte(html), 0644); err != nil {
		sv.logger.Errorf("write HTML report to %s: %v", sv.cfg.HTMLReportPath, err)
	}
}

// notify builds the "Metasys: <event>" subject from §6 and delivers
// through the configured sink, best-effort per §7.
func (sv *Supervisor) notify(event, body string, html bool) {
	if sv.sink == nil {
		return
	}
	subject := fmt.Sprintf("Metasys: %s", event)
	if err := sv.sink.Notify(subject, body, html); err != nil {
		sv.logger.Warnf("notification delivery failed: %v", err)
	}
}

// notifyExit emits the per-exit notification described in §4.2: the
// body classifies the exit as a plain status or a core dump.
func (sv *Supervisor) notifyExit(c *proctable.Child, res sysutil.ReapResult, tooQuick bool) {
	var body string
	switch {
	case res.Signaled && res.CoreDump:
		body = fmt.Sprintf("%s:%s\n\n%s died by signal %v, CORE was dumped.", sv.hostname, sv.cfgPath, c.Label, res.Signal)
	case res.Signaled:
		body = fmt.Sprintf("%s:%s\n\n%s died by signal %v.", sv.hostname, sv.cfgPath, c.Label, res.Signal)
	default:
		body = fmt.Sprintf("%s:%s\n\n%s died with exit value %d.", sv.hostname, sv.cfgPath, c.Label, res.ExitCode)
	}
	if tooQuick {
		body += " Restarting after an extended backoff (died too quickly)."
	} else {
		body += " Restarting after the normal restart delay."
	}
	sv.notify(fmt.Sprintf("%s exited", c.Label), body, false)
}

func (sv *Supervisor) notifyErrorReport(errs []config.ParseError) {
	body := fmt.Sprintf("%s:%s\n\n", sv.hostname, sv.cfgPath)
	for _, e := range errs {
		body += e.Error() + "\n"
	}
	sv.notify("configuration error", body, false)
}
