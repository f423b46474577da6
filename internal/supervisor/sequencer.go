package supervisor

import (
	"time"

	"metasys/internal/proctable"
	"metasys/internal/sysutil"
)

// launchPending runs the staged sequencer from §4.5: ungrouped
// children first, then each named group in name-sort order, each
// cohort internally spaced by start_delay, with an extra start_delay
// between the ungrouped cohort and the first group. Every delay
// boundary and every launch step re-checks the shutdown sentinel and
// aborts immediately if it is present.
func (sv *Supervisor) launchPending(now time.Time) {
	if sv.sentinelTripped() {
		return
	}

	due := func(labels []string) []string {
		var out []string
		for _, label := range labels {
			c, ok := sv.table.Get(label)
			if ok && c.DueToLaunch(now) {
				out = append(out, label)
			}
		}
		return out
	}

	ungroupedDue := due(sv.ordering.Ungrouped)

	var groupCohorts [][]string
	for _, g := range sv.ordering.GroupKeys {
		if d := due(sv.ordering.Groups[g]); len(d) > 0 {
			groupCohorts = append(groupCohorts, d)
		}
	}

	if sv.runCohort(ungroupedDue, now) {
		return
	}

	if len(ungroupedDue) > 0 && len(groupCohorts) > 0 {
		if sv.sentinelTripped() {
			return
		}
		time.Sleep(sv.cfg.StartDelay)
	}

	for i, cohort := range groupCohorts {
		if sv.sentinelTripped() {
			return
		}
		if sv.runCohort(cohort, now) {
			return
		}
		if i < len(groupCohorts)-1 {
			if sv.sentinelTripped() {
				return
			}
			time.Sleep(sv.cfg.StartDelay)
		}
	}
}

// runCohort launches labels in order, sleeping start_delay between
// successive launches. It returns true if the shutdown sentinel was
// observed and the sequencer should abort.
func (sv *Supervisor) runCohort(labels []string, now time.Time) (aborted bool) {
	for i, label := range labels {
		if sv.sentinelTripped() {
			return true
		}

		c, ok := sv.table.Get(label)
		if ok {
			if c.Pid != proctable.NoPid {
				// A reload that changed the command reschedules a child
				// that is still running: stop the old process first.
				sv.terminateChild(c, sv.cfg.TermWait, now)
			}
			if err := sv.launchChild(c, now); err != nil {
				sv.logger.Warnf("launch step for %s failed: %v", label, err)
			}
		}

		if i < len(labels)-1 {
			if sv.sentinelTripped() {
				return true
			}
			time.Sleep(sv.cfg.StartDelay)
		}
	}
	return false
}

func (sv *Supervisor) sentinelTripped() bool {
	return sysutil.SentinelExists(sv.sentinelPath)
}
