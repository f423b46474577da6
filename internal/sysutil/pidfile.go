package sysutil

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// WritePidFile writes pid as decimal digits on one line, per §6.
func WritePidFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0644)
}

// ReadPidFile reads the pid recorded in path. It returns an error
// wrapping os.ErrNotExist when the file is absent.
func ReadPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %s: %w", path, err)
	}

	return pid, nil
}

// IsProcessLive reports whether pid names a live process, using the
// conventional signal-0 probe.
func IsProcessLive(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return proc.Signal(syscall.Signal(0)) == nil
}

// AcquireSingleton enforces the "a pid file in the log directory holds
// the supervisor's pid at startup" invariant from §5. It returns true
// when it is safe to proceed: the file was absent, named a dead
// process (and was cleared), or this call is itself clearing a stale
// singleton on behalf of a shutdown request that found nothing live.
func AcquireSingleton(path string) (ok bool, err error) {
	pid, rerr := ReadPidFile(path)
	if rerr != nil {
		if os.IsNotExist(rerr) {
			return true, nil
		}
		return false, rerr
	}

	if IsProcessLive(pid) {
		return false, nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, err
	}

	return true, nil
}
