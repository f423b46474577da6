// Package supervisor is the control loop and its four-phase tick —
// the heart of metasys, per §2 and §4.1. It is single-threaded
// cooperative: the only concurrent actors are OS signals (handled
// exclusively through the filesystem-mediated sentinel in
// internal/sysutil) and the children themselves, whose stdout/stderr
// are redirected straight to log files rather than mediated here.
package supervisor

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"metasys/internal/config"
	"metasys/internal/journal"
	"metasys/internal/notify"
	"metasys/internal/proctable"
	"metasys/internal/report"
	"metasys/internal/resourceprobe"
)

// Supervisor owns the process table, the current configuration
// snapshot, and the reporting timers. Nothing outside Run/Tick ever
// mutates these fields, so — unlike the teacher's Supervisor — no
// mutex guards them; the single control goroutine is the only writer
// and the only reader.
type Supervisor struct {
	StartedAt time.Time

	cfgPath    string
	cfgModTime time.Time
	cfg        *config.Config
	firstParse bool

	table    *proctable.Table
	ordering *proctable.Ordering

	// launchOrderAtStart is ShutdownOrder() captured the moment Run
	// begins, so shutdown always reverses the order launch actually
	// happened in, per §5 — even if reconciliation changes ordering
	// mid-run, shutdown of labels still present follows this capture.
	launchOrderAtStart []string

	logDir       string
	logFilePath  string
	pidFilePath  string
	sentinelPath string

	logger *zap.SugaredLogger
	sink   notify.Sink
	// sinkIsDefault is true when sink was derived from the Email/MTA
	// directives rather than injected via Options — only then does a
	// config reload get to replace it, so a test's notify.Recorder
	// always survives reconciliation.
	sinkIsDefault bool
	probe         resourceprobe.Probe
	jrnl          *journal.Journal

	nextSysReport  time.Time
	nextHTMLReport time.Time

	hostname string
}

// Options bundles the collaborators named in §1 as pluggable
// dependencies, so tests can substitute a notify.Recorder and a nil
// probe.
type Options struct {
	Sink    notify.Sink
	Probe   resourceprobe.Probe
	Journal *journal.Journal
	Logger  *zap.SugaredLogger
}

// New performs the first configuration parse. Per §7, any
// configuration error on first startup is fatal (the caller is
// expected to exit 1), unlike later reparses where errors are merely
// accumulated and reported.
func New(cfgPath string, opts Options) (*Supervisor, error) {
	result, err := config.ParseFile(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("configuration error on startup: %s", result.Errors[0].Error())
	}

	cfg := result.Config
	if cfg.LogDir == "" {
		return nil, fmt.Errorf("configuration error on startup: LogDir is required")
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("create log_dir %s: %w", cfg.LogDir, err)
	}

	stat, err := os.Stat(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("stat config %s: %w", cfgPath, err)
	}

	hostname, _ := os.Hostname()

	sv := &Supervisor{
		StartedAt:    time.Now(),
		cfgPath:      cfgPath,
		cfgModTime:   stat.ModTime(),
		cfg:          cfg,
		firstParse:   true,
		table:        proctable.NewTable(),
		logDir:       cfg.LogDir,
		logFilePath:  logPath(cfg.LogDir),
		pidFilePath:  pidPath(cfg.LogDir),
		sentinelPath: sentinelFilePath(cfg.LogDir),
		logger:       opts.Logger,
		sink:         opts.Sink,
		probe:        opts.Probe,
		jrnl:         opts.Journal,
		hostname:     hostname,
	}

	if sv.sink == nil {
		sv.sink = sinkFromConfig(cfg)
		sv.sinkIsDefault = true
	}

	now := sv.StartedAt
	errs := config.Reconcile(sv.table, cfg, now)
	for _, e := range errs {
		sv.logger.Warn(e)
	}
	sv.ordering = proctable.BuildOrdering(sv.table)

	if cfg.SysReportPeriod > 0 {
		sv.nextSysReport = report.NextPeriodicBoundary(now, cfg.SysReportPeriod)
	}
	if cfg.HTMLReportPath != "" {
		sv.nextHTMLReport = report.NextIntervalBoundary(time.Time{}, cfg.HTMLReportInterval, now)
	}

	return sv, nil
}

func sinkFromConfig(cfg *config.Config) notify.Sink {
	if len(cfg.Recipients) == 0 {
		return notify.NopSink{}
	}
	return notify.NewSMTPSink(cfg.MTAHost, "metasys@localhost", cfg.Recipients)
}

func logPath(logDir string) string      { return logDir + "/metasys.log" }
func pidPath(logDir string) string      { return logDir + "/metasys.pid" }
func sentinelFilePath(logDir string) string { return logDir + "/metasys.term" }

// LogDir exposes the resolved log directory (fixed at first startup
// per §3).
func (sv *Supervisor) LogDir() string { return sv.logDir }

// PidFilePath exposes metasys.pid's path, for the CLI's singleton
// checks and "-s"/"-k" shutdown mode.
func (sv *Supervisor) PidFilePath() string { return sv.pidFilePath }

// SentinelPath exposes metasys.term's path.
func (sv *Supervisor) SentinelPath() string { return sv.sentinelPath }
