package supervisor

import (
	"syscall"
	"time"

	"metasys/internal/journal"
	"metasys/internal/proctable"
	"metasys/internal/sysutil"
)

const pollInterval = 100 * time.Millisecond

// terminateChild is the termination primitive from §4.4: polite
// signal, poll up to termWait at 100ms granularity, escalate to
// SIGKILL, poll again, and give up with a zombie warning rather than
// blocking the control loop indefinitely.
func (sv *Supervisor) terminateChild(c *proctable.Child, termWait time.Duration, now time.Time) {
	if c.Pid == proctable.NoPid {
		return
	}
	pid := c.Pid

	sv.logger.Infof("terminating %s pid=%d", c.Label, pid)
	_ = syscall.Kill(pid, syscall.SIGTERM)

	if res, ok := sv.pollForExit(pid, termWait); ok {
		sv.logReaped(c, res, now)
		c.Pid = proctable.NoPid
		return
	}

	sv.logger.Warnf("%s pid=%d did not respond to TERM, sending KILL", c.Label, pid)
	_ = syscall.Kill(pid, syscall.SIGKILL)

	if res, ok := sv.pollForExit(pid, termWait); ok {
		sv.logReaped(c, res, now)
		c.Pid = proctable.NoPid
		return
	}

	sv.logger.Errorf("%s pid=%d did not terminate, leaving (potential) zombie", c.Label, pid)
	sv.recordEvent(journal.Event{Label: c.Label, Kind: "zombie", Time: now, Detail: "did not terminate after TERM and KILL"})
}

// pollForExit polls pid via non-blocking reap at pollInterval
// granularity for up to budget. It never blocks the control loop
// longer than budget, matching §5's "suspension points" list.
func (sv *Supervisor) pollForExit(pid int, budget time.Duration) (sysutil.ReapResult, bool) {
	deadline := time.Now().Add(budget)

	for {
		res, ok, err := sysutil.ReapOne(pid)
		if err != nil {
			sv.logger.Warnf("reap poll for pid %d: %v", pid, err)
		}
		if ok {
			return res, true
		}
		if !time.Now().Before(deadline) {
			return sysutil.ReapResult{}, false
		}
		time.Sleep(pollInterval)
	}
}

func (sv *Supervisor) logReaped(c *proctable.Child, res sysutil.ReapResult, now time.Time) {
	switch {
	case res.Signaled && res.CoreDump:
		sv.logger.Infof("%s pid=%d terminated by signal %v, CORE was dumped", c.Label, res.Pid, res.Signal)
	case res.Signaled:
		sv.logger.Infof("%s pid=%d terminated by signal %v", c.Label, res.Pid, res.Signal)
	default:
		sv.logger.Infof("%s pid=%d exited with status %d", c.Label, res.Pid, res.ExitCode)
	}
	sv.recordEvent(journal.Event{
		Label: c.Label, Kind: "terminated", Time: now,
		ExitCode: res.ExitCode, Signaled: res.Signaled, CoreDump: res.CoreDump,
	})
}
