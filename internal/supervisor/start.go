package supervisor

import (
	"fmt"

	"metasys/internal/sysutil"
)

// AcquireSingleton enforces §5's pid-file singleton rule before Run is
// ever called: launch aborts if the pid file names a live process,
// proceeds (clearing it first) if it names a dead one.
func (sv *Supervisor) AcquireSingleton() error {
	ok, err := sysutil.AcquireSingleton(sv.pidFilePath)
	if err != nil {
		return fmt.Errorf("check singleton pid file %s: %w", sv.pidFilePath, err)
	}
	if !ok {
		return fmt.Errorf("metasys is already running (see %s)", sv.pidFilePath)
	}
	return nil
}

// WritePidFile records this process's pid, and WatchSignals arms the
// interrupt/terminate handler that creates the shutdown sentinel
// (§4.1, §5). Both must run before Run is called.
func (sv *Supervisor) WritePidFile(pid int) error {
	return sysutil.WritePidFile(sv.pidFilePath, pid)
}

func (sv *Supervisor) WatchSignals() {
	sysutil.WatchSignals(sv.sentinelPath)
}
