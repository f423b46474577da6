package sysutil

import "syscall"

// ReapResult describes the outcome of a non-blocking reap.
type ReapResult struct {
	Pid      int
	Exited   bool
	ExitCode int
	Signaled bool
	Signal   syscall.Signal
	CoreDump bool
}

// ReapAny performs a single non-blocking wait for any child of this
// process (pid -1), mirroring the C supervise loop's "reap whatever
// is ready" step. ok is false when there was nothing to reap.
func ReapAny() (res ReapResult, ok bool, err error) {
	return reapWait(-1)
}

// ReapOne performs a single non-blocking wait targeted at one pid.
func ReapOne(pid int) (res ReapResult, ok bool, err error) {
	return reapWait(pid)
}

func reapWait(target int) (res ReapResult, ok bool, err error) {
	var ws syscall.WaitStatus

	pid, werr := syscall.Wait4(target, &ws, syscall.WNOHANG, nil)
	if werr != nil {
		if werr == syscall.ECHILD {
			return ReapResult{}, false, nil
		}
		return ReapResult{}, false, werr
	}

	if pid <= 0 {
		return ReapResult{}, false, nil
	}

	res = ReapResult{Pid: pid}

	// CoreDump() checks status&0x80 on the low byte, the same
	// non-standard high-bit-of-low-byte mask §9 calls out — we rely on
	// the stdlib's own WaitStatus.CoreDump implementing that mask
	// rather than reimplementing it, since it matches the legacy
	// behaviour bit-for-bit and the Open Question says to preserve it,
	// not "fix" it.
	if ws.Exited() {
		res.Exited = true
		res.ExitCode = ws.ExitStatus()
	} else if ws.Signaled() {
		res.Signaled = true
		res.Signal = ws.Signal()
		res.CoreDump = ws.CoreDump()
	}

	return res, true, nil
}
