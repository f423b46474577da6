package supervisor

import (
	"os"
	"time"

	"metasys/internal/proctable"
	"metasys/internal/sysutil"
)

// Shutdown brings every child down in the exact reverse of the launch
// order captured when Run began (§3, §5, §8), regardless of any
// reconciliation that happened in between, then emits the shutdown
// notification and clears the sentinel and pid file.
func (sv *Supervisor) Shutdown() {
	now := time.Now()
	sv.logger.Infof("shutdown requested, terminating %d children", sv.table.Len())

	for _, label := range sv.launchOrderAtStart {
		c, ok := sv.table.Get(label)
		if !ok {
			continue
		}
		sv.terminateChild(c, sv.cfg.TermWait, now)
		sv.table.Delete(label)
	}

	// Children added by a reload after Run began are not in the capture;
	// they come down afterwards, in the current shutdown order.
	for _, label := range proctable.BuildOrdering(sv.table).ShutdownOrder() {
		c, _ := sv.table.Get(label)
		sv.terminateChild(c, sv.cfg.TermWait, now)
		sv.table.Delete(label)
	}

	sv.notify("shutdown", sv.hostname+":"+sv.cfgPath+"\n\nmetasys is shutting down.", false)

	if sv.jrnl != nil {
		_ = sv.jrnl.Close()
	}

	if err := sysutil.RemoveSentinel(sv.sentinelPath); err != nil {
		sv.logger.Warnf("remove sentinel %s: %v", sv.sentinelPath, err)
	}
	if err := os.Remove(sv.pidFilePath); err != nil && !os.IsNotExist(err) {
		sv.logger.Warnf("remove pid file %s: %v", sv.pidFilePath, err)
	}

	sv.logger.Info("metasys stopped")
}
