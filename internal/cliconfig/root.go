// Package cliconfig is the command-line surface from §6: one
// positional configuration-file argument, "-h"/"-v"/"-s"/"-k"/"-C",
// wired through spf13/cobra and spf13/pflag exactly like the
// teacher's cmd package, with a spf13/viper METASYS_-prefixed
// environment overlay on top of the flags (never on top of the
// supervised-child configuration grammar, which stays a hand-written
// parser — see SPEC_FULL.md §4.8).
package cliconfig

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"metasys/internal/config"
	"metasys/internal/daemonize"
	"metasys/internal/journal"
	"metasys/internal/logging"
	"metasys/internal/resourceprobe"
	"metasys/internal/supervisor"
	"metasys/internal/sysutil"
)

var (
	verboseCount int
	shutdownFlag bool
	killFlag     bool
	exampleFlag  bool
)

var rootCmd = &cobra.Command{
	Use:           "metasys [config-file]",
	Short:         "metasys process supervisor",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runRoot,
}

func init() {
	flags := rootCmd.Flags()
	flags.CountVarP(&verboseCount, "verbose", "v", "increase verbosity (repeatable)")
	flags.BoolVarP(&shutdownFlag, "shutdown", "s", false, "shut down the running instance")
	flags.BoolVarP(&killFlag, "kill", "k", false, "alias for -s")
	flags.BoolVarP(&exampleFlag, "example-config", "C", false, "print a commented example configuration and exit")

	for _, name := range []string{"verbose", "shutdown", "kill", "example-config"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	viper.SetEnvPrefix("METASYS")
	viper.AutomaticEnv()
}

// Execute is the CLI entrypoint called from cmd/metasys/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if viper.GetBool("example-config") {
		fmt.Print(ExampleConfig)
		return nil
	}

	shutdown := viper.GetBool("shutdown") || viper.GetBool("kill")

	if len(args) == 0 {
		_ = cmd.Usage()
		os.Exit(1)
	}
	cfgPath := args[0]

	if shutdown {
		return runShutdown(cfgPath)
	}

	return runSupervisor(cfgPath, viper.GetInt("verbose"))
}

// runShutdown implements "-s"/"-k" (§6, §5): locate the running
// instance by its pid file under the configured log_dir and request
// shutdown by signal, mirroring the same pid-file-plus-signal-0
// discipline AcquireSingleton uses at startup.
func runShutdown(cfgPath string) error {
	result, err := config.ParseFile(cfgPath)
	if err != nil {
		return fmt.Errorf("read config %s: %w", cfgPath, err)
	}
	logDir := result.Config.LogDir
	if logDir == "" {
		return fmt.Errorf("%s does not set LogDir; cannot locate the running instance", cfgPath)
	}

	pidPath := logDir + "/metasys.pid"
	sentinelPath := logDir + "/metasys.term"

	pid, err := sysutil.ReadPidFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("metasys is not running")
			return nil
		}
		return fmt.Errorf("read pid file %s: %w", pidPath, err)
	}

	if !sysutil.IsProcessLive(pid) {
		_ = os.Remove(pidPath)
		fmt.Println("metasys is not running (stale pid file removed)")
		return nil
	}

	if err := sysutil.CreateSentinel(sentinelPath); err != nil {
		return fmt.Errorf("create shutdown sentinel %s: %w", sentinelPath, err)
	}

	proc, err := os.FindProcess(pid)
	if err == nil {
		_ = proc.Signal(os.Interrupt)
	}

	fmt.Printf("shutdown requested for pid %d\n", pid)
	return nil
}

// runSupervisor implements the default run mode: daemonize, acquire
// the singleton pid file, wire the ambient and domain stack, and
// block in the control loop until shutdown.
func runSupervisor(cfgPath string, verbosity int) error {
	peek, err := config.ParseFile(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "metasys: %v\n", err)
		os.Exit(1)
	}
	if peek.Config.LogDir == "" {
		fmt.Fprintln(os.Stderr, "metasys: configuration error on startup: LogDir is required")
		os.Exit(1)
	}
	if err := os.MkdirAll(peek.Config.LogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "metasys: create log_dir: %v\n", err)
		os.Exit(1)
	}

	proc, err := daemonize.Reborn(peek.Config.LogDir+"/metasys.daemon.pid", peek.Config.LogDir)
	if err != nil {
		return fmt.Errorf("daemonize: %w", err)
	}
	if proc != nil {
		// Parent process: the child has detached, nothing left to do.
		return nil
	}
	defer func() { _ = daemonize.Release() }()

	level := zapcore.InfoLevel
	if verbosity > 0 {
		level = zapcore.DebugLevel
	}

	logger := logging.New(peek.Config.LogDir+"/metasys.log", false, level)
	defer func() { _ = logger.Sync() }()

	var probe resourceprobe.Probe
	if p, probeErr := resourceprobe.NewProcProbe(); probeErr != nil {
		logger.Warnf("resource probe unavailable: %v", probeErr)
	} else {
		probe = p
	}

	jrnl, jerr := journal.Open()
	if jerr != nil {
		logger.Warnf("event journal unavailable: %v", jerr)
	}

	sysutil.InitPath()

	sv, err := supervisor.New(cfgPath, supervisor.Options{
		Logger:  logger,
		Probe:   probe,
		Journal: jrnl,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "metasys: %v\n", err)
		os.Exit(1)
	}

	if err := sv.AcquireSingleton(); err != nil {
		fmt.Fprintf(os.Stderr, "metasys: %v\n", err)
		os.Exit(1)
	}
	if err := sv.WritePidFile(os.Getpid()); err != nil {
		fmt.Fprintf(os.Stderr, "metasys: write pid file: %v\n", err)
		os.Exit(1)
	}

	sv.WatchSignals()
	sv.Run()

	return nil
}
