// Package daemonize is the thin seam between the core and the
// out-of-scope detach-from-terminal step named in §1. It exists so
// that nothing else in this module needs to know how double-forking
// and session detachment work — that is exactly the "external
// collaborator" the spec draws a box around.
package daemonize

import (
	"os"

	daemonlib "github.com/gnuos/daemon"
)

var ctx *daemonlib.Context

// Get returns the process-wide daemon context, creating it on first
// use, matching the teacher's GetDaemon() singleton.
func Get(pidFile, workDir string) *daemonlib.Context {
	if ctx == nil {
		ctx = &daemonlib.Context{
			PidFileName: pidFile,
			PidFilePerm: 0644,
			WorkDir:     workDir,
			Umask:       027,
			Args:        os.Args,
		}
	}
	return ctx
}

// Reborn detaches into the background. A non-nil returned *os.Process
// means the caller is the parent and should simply return; nil means
// the caller is now the daemonized child and should proceed to run.
func Reborn(pidFile, workDir string) (*os.Process, error) {
	return Get(pidFile, workDir).Reborn()
}

// Release tears down the daemon context's resources (typically the
// pid file) on clean exit.
func Release() error {
	if ctx == nil {
		return nil
	}
	return ctx.Release()
}
