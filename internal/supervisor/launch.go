package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"metasys/internal/journal"
	"metasys/internal/proctable"
)

// launchChild is the launch primitive from §4.3: argv[0] is resolved
// through the (already-augmented) PATH, stdout/stderr are redirected
// to the per-child log file in append mode, and the process is
// started without the supervisor ever calling Wait on it — reaping
// happens exclusively through the non-blocking syscall.Wait4 calls in
// reap(), never through os/exec's own Wait machinery.
func (sv *Supervisor) launchChild(c *proctable.Child, now time.Time) error {
	if len(c.Command) == 0 {
		return fmt.Errorf("child %q has an empty command", c.Label)
	}

	logFile, err := os.OpenFile(sv.childLogPath(c.Label), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		sv.logger.Errorf("launch %s: open log file: %v", c.Label, err)
		return fmt.Errorf("open log file for %s: %w", c.Label, err)
	}
	defer logFile.Close()

	cmd := exec.Command(c.Command[0], c.Command[1:]...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		sv.logger.Errorf("launch %s: %v", c.Label, err)
		sv.recordEvent(journal.Event{Label: c.Label, Kind: "launch_failed", Time: now, Detail: err.Error()})
		return fmt.Errorf("start %s: %w", c.Label, err)
	}

	c.MarkRunning(cmd.Process.Pid, now)
	sv.logger.Infof("launched %s pid=%d command=%q", c.Label, c.Pid, c.Command)
	sv.recordEvent(journal.Event{Label: c.Label, Kind: "launched", Time: now, Detail: fmt.Sprintf("pid=%d", c.Pid)})

	return nil
}

func (sv *Supervisor) childLogPath(label string) string {
	return sv.logDir + "/" + label
}

func (sv *Supervisor) recordEvent(ev journal.Event) {
	if sv.jrnl == nil {
		return
	}
	if err := sv.jrnl.Record(ev); err != nil {
		sv.logger.Warnf("journal record failed: %v", err)
	}
}
