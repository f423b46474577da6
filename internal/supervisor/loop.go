package supervisor

import (
	"os"
	"time"

	"metasys/internal/config"
	"metasys/internal/journal"
	"metasys/internal/proctable"
	"metasys/internal/report"
	"metasys/internal/sysutil"
)

// Run is the control loop from §2: one tick per wall-clock second,
// four phases in order, then due reports, then sleep. It returns once
// the shutdown sentinel has been observed and teardown is complete.
func (sv *Supervisor) Run() {
	sv.launchOrderAtStart = append([]string(nil), sv.ordering.ShutdownOrder()...)
	sv.logger.Infof("metasys started, watching %d children", sv.table.Len())

	for {
		now := time.Now()
		sv.Tick(now)

		if sv.sentinelTripped() {
			break
		}

		sv.emitReports(now)

		if sv.sentinelTripped() {
			break
		}

		time.Sleep(time.Second)
	}

	sv.Shutdown()
}

// Tick runs the four phases from §2 once. Each phase checks the
// shutdown sentinel at its boundary and returns early if it is set,
// so a shutdown request is never delayed behind a full tick's work.
func (sv *Supervisor) Tick(now time.Time) {
	if sv.sentinelTripped() {
		return
	}
	sv.refreshConfig(now)

	if sv.sentinelTripped() {
		return
	}
	sv.reap(now)

	if sv.sentinelTripped() {
		return
	}
	sv.terminatePending(now)

	if sv.sentinelTripped() {
		return
	}
	sv.launchPending(now)
}

// refreshConfig is phase 1 (§4.6): reparse only if the file's mtime
// changed, reconcile regardless of errors, and always advance the
// recorded mtime at the end of the attempt.
func (sv *Supervisor) refreshConfig(now time.Time) {
	stat, err := os.Stat(sv.cfgPath)
	if err != nil {
		sv.logger.Errorf("stat config %s: %v", sv.cfgPath, err)
		return
	}
	if stat.ModTime().Equal(sv.cfgModTime) {
		return
	}

	result, err := config.ParseFile(sv.cfgPath)
	sv.cfgModTime = stat.ModTime()
	if err != nil {
		sv.logger.Errorf("reread config %s: %v", sv.cfgPath, err)
		return
	}

	newCfg := result.Config
	// LogDir is fixed at first startup; a changed value in a reloaded
	// file is ignored, per §3/§4.6 and §8's boundary behavior.
	newCfg.LogDir = sv.logDir

	reconcileErrs := config.Reconcile(sv.table, newCfg, now)
	sv.cfg = newCfg
	sv.ordering = proctable.BuildOrdering(sv.table)

	allErrs := append([]config.ParseError(nil), result.Errors...)
	for _, e := range reconcileErrs {
		allErrs = append(allErrs, config.ParseError{Message: e.Error()})
	}

	if len(allErrs) > 0 {
		sv.logger.Warnf("configuration reload for %s produced %d error(s)", sv.cfgPath, len(allErrs))
		sv.notifyErrorReport(allErrs)
	}

	if sv.sinkIsDefault {
		sv.sink = sinkFromConfig(newCfg)
	}

	if newCfg.SysReportPeriod > 0 && sv.nextSysReport.IsZero() {
		sv.nextSysReport = report.NextPeriodicBoundary(now, newCfg.SysReportPeriod)
	}
}

// reap is phase 2 (§2 step 2 / §4.2): non-blocking collection of
// every child that has exited since the last tick, classifying each
// as "normal" or "too-quick" and scheduling its next attempt.
func (sv *Supervisor) reap(now time.Time) {
	for {
		res, ok, err := sysutil.ReapAny()
		if err != nil {
			sv.logger.Warnf("reap: %v", err)
			return
		}
		if !ok {
			return
		}

		child := sv.findByPid(res.Pid)
		if child == nil {
			// Not one of ours (or already removed from the table) —
			// nothing left to account for beyond reaping it.
			continue
		}

		sv.logExit(child, res)
		sv.recordEvent(journal.Event{
			Label: child.Label, Kind: "exited", Time: now,
			ExitCode: res.ExitCode, Signaled: res.Signaled, CoreDump: res.CoreDump,
		})

		tooQuick := child.ScheduleRestart(now, sv.cfg.RestartDelay)
		sv.recordEvent(journal.Event{
			Label: child.Label, Kind: "restart_scheduled", Time: now,
			RestartCount: child.RestartCount,
			Detail:       restartDetail(tooQuick),
		})
		sv.notifyExit(child, res, tooQuick)
	}
}

func restartDetail(tooQuick bool) string {
	if tooQuick {
		return "died too quickly"
	}
	return "scheduled normally"
}

func (sv *Supervisor) findByPid(pid int) *proctable.Child {
	for c := range sv.table.All() {
		if c.Pid == pid && c.State() == proctable.Running {
			return c
		}
	}
	return nil
}

func (sv *Supervisor) logExit(c *proctable.Child, res sysutil.ReapResult) {
	switch {
	case res.Signaled && res.CoreDump:
		sv.logger.Infof("%s pid=%d died by signal %v, CORE was dumped", c.Label, res.Pid, res.Signal)
	case res.Signaled:
		sv.logger.Infof("%s pid=%d died by signal %v", c.Label, res.Pid, res.Signal)
	default:
		sv.logger.Infof("%s pid=%d died with exit value %d", c.Label, res.Pid, res.ExitCode)
	}
}

// terminatePending is phase 3 (§2 step 3): every child marked
// pending-removal is signalled through the termination protocol and
// then deleted from the table.
func (sv *Supervisor) terminatePending(now time.Time) {
	var toRemove []string
	for c := range sv.table.All() {
		if c.State() == proctable.PendingRemoval {
			toRemove = append(toRemove, c.Label)
		}
	}

	for _, label := range toRemove {
		if sv.sentinelTripped() {
			return
		}
		c, ok := sv.table.Get(label)
		if !ok {
			continue
		}
		sv.terminateChild(c, sv.cfg.TermWait, now)
		sv.table.Delete(label)
	}

	if len(toRemove) > 0 {
		sv.ordering = proctable.BuildOrdering(sv.table)
	}
}
