// Package config implements the supervised-child configuration
// grammar from §4.6. Parsing is line-oriented, case-insensitive for
// keywords, '#' introduces a comment, blank lines are ignored, and
// unknown directives are silently ignored for forward compatibility
// per §6. This grammar is normative and is never routed through
// viper/yaml — see SPEC_FULL.md §4.8 for why.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"metasys/internal/sysutil"
)

// ChildDecl is one "Process"/"Process<Group>" declaration, in file
// order.
type ChildDecl struct {
	Label   string
	Group   string
	Command []string
}

// Config is the immutable snapshot produced by a single parse. Per
// the design note in §9, reparsing never mutates a live Config in
// place — it produces a brand new one that the reconciler diffs
// against the process table, then the snapshot pointer is swapped
// atomically by the caller.
type Config struct {
	Children []ChildDecl

	Recipients []string
	MTAHost    string

	StartDelay   time.Duration
	RestartDelay time.Duration
	TermWait     time.Duration

	Description string

	SysReportPeriod time.Duration // 0 = none ("SysReport" never set)

	HTMLReportPath     string
	HTMLReportInterval time.Duration

	// LogDir is only meaningful on the very first parse; reload
	// callers must ignore later changes per §4.6.
	LogDir string
}

// Default returns a Config with every documented default from §3
// already applied, before any directive has been read.
func Default() *Config {
	return &Config{
		MTAHost:            "localhost",
		StartDelay:         10 * time.Second,
		RestartDelay:       30 * time.Second,
		TermWait:           30 * time.Second,
		HTMLReportInterval: 60 * time.Second,
	}
}

var (
	// Tested first: a bare "Process" directive. Must be tried before
	// reProcessGroup, because "Process" is also a textual prefix of
	// "Process<Group>". Preserving this ordering is the resolution to
	// the Open Question in §9: a line is only ever treated as
	// contributing to a group when it fails this match and then
	// succeeds against reProcessGroup, never both.
	reProcess = regexp.MustCompile(`(?i)^Process\s+(\S+)\s+(.+)$`)
	// Tested second: "Process<Group>" with no separator between the
	// word "Process" and the group name.
	reProcessGroup = regexp.MustCompile(`(?i)^Process(\S+)\s+(\S+)\s+(.+)$`)

	reEmailAddr = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

	reLabel = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ParseError collects one malformed line without aborting the parse,
// per §4.6: "Errors do not abort reconciliation; they are accumulated
// into a single error report."
type ParseError struct {
	Line    int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ParseResult is the outcome of a single parse pass.
type ParseResult struct {
	Config *Config
	Errors []ParseError
}

// ParseFile reads and parses the config file at path.
func ParseFile(path string) (*ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f), nil
}

// Parse reads the supervised-child configuration grammar from r,
// applying directives in file order onto a Default() snapshot.
func Parse(r io.Reader) *ParseResult {
	cfg := Default()
	res := &ParseResult{Config: cfg}

	seenLabels := make(map[string]bool)
	var recipients []string
	recipientsTouched := false

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		fail := func(format string, args ...any) {
			res.Errors = append(res.Errors, ParseError{lineNo, fmt.Sprintf(format, args...)})
		}

		if m := reProcess.FindStringSubmatch(line); m != nil {
			if err := addChild(cfg, seenLabels, m[1], "", m[2]); err != nil {
				fail("%s", err)
			}
			continue
		}

		if m := reProcessGroup.FindStringSubmatch(line); m != nil {
			group, label, cmdline := m[1], m[2], m[3]
			if err := addChild(cfg, seenLabels, label, group, cmdline); err != nil {
				fail("%s", err)
			}
			continue
		}

		fields := strings.Fields(line)
		keyword := strings.ToLower(fields[0])
		value := valueOf(line)

		switch keyword {
		case "email":
			addrs, err := parseEmailValue(value)
			switch {
			case value == "":
				recipients = nil
				recipientsTouched = true
			case err != nil && len(addrs) == 0:
				fail("%s", err)
			case err != nil:
				fail("%s", err)
				recipients = addrs
				recipientsTouched = true
			default:
				recipients = addrs
				recipientsTouched = true
			}

		case "mta":
			cfg.MTAHost = value

		case "startdelay":
			if d, err := parseSeconds(value); err != nil {
				fail("%s", err)
			} else {
				cfg.StartDelay = d
			}

		case "restartdelay":
			if d, err := parseSeconds(value); err != nil {
				fail("%s", err)
			} else {
				cfg.RestartDelay = d
			}

		case "termwait":
			if d, err := parseSeconds(value); err != nil {
				fail("%s", err)
			} else {
				cfg.TermWait = d
			}

		case "description":
			cfg.Description = value

		case "sysreport":
			switch strings.ToLower(value) {
			case "daily":
				cfg.SysReportPeriod = 86400 * time.Second
			case "hourly":
				cfg.SysReportPeriod = 3600 * time.Second
			default:
				fail("unrecognized SysReport value %q", value)
			}

		case "htmlreport":
			path, interval, err := parseHTMLReport(value)
			if err != nil {
				fail("%s", err)
			} else {
				cfg.HTMLReportPath = path
				cfg.HTMLReportInterval = interval
			}

		case "logdir":
			cfg.LogDir = value

		default:
			// Unknown directives are silently ignored, per §6.
		}
	}

	if recipientsTouched {
		cfg.Recipients = recipients
	}

	return res
}

func stripComment(raw string) string {
	line := raw
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// valueOf returns everything after the line's first whitespace-delimited
// token — the directive's value, per §4.6's "first whitespace-delimited
// token selects a directive; the remainder is the value." It must track
// the same whitespace rule strings.Fields uses to extract the keyword
// itself, so a directive and its value separated by a tab (rather than a
// literal space) are split correctly too.
func valueOf(line string) string {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx:])
}

func parseSeconds(s string) (time.Duration, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid integer value %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d not allowed", n)
	}
	return time.Duration(n) * time.Second, nil
}

func parseEmailValue(val string) ([]string, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}

	var valid, bad []string
	for _, addr := range strings.Split(val, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if reEmailAddr.MatchString(addr) {
			valid = append(valid, addr)
		} else {
			bad = append(bad, addr)
		}
	}

	if len(bad) > 0 {
		return valid, fmt.Errorf("invalid recipient address(es): %s", strings.Join(bad, ", "))
	}
	return valid, nil
}

func parseHTMLReport(val string) (path string, interval time.Duration, err error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return "", 0, fmt.Errorf("HTMLReport requires a path")
	}

	if idx := strings.LastIndex(val, ":"); idx >= 0 {
		path = val[:idx]
		n, convErr := strconv.Atoi(val[idx+1:])
		if convErr != nil || n < 0 {
			return "", 0, fmt.Errorf("invalid HTMLReport interval in %q", val)
		}
		return path, time.Duration(n) * time.Second, nil
	}

	return val, 60 * time.Second, nil
}

func addChild(cfg *Config, seen map[string]bool, label, group, cmdline string) error {
	if !reLabel.MatchString(label) {
		return fmt.Errorf("invalid label %q", label)
	}
	if seen[label] {
		return fmt.Errorf("duplicate label %q", label)
	}
	seen[label] = true

	cfg.Children = append(cfg.Children, ChildDecl{
		Label:   label,
		Group:   group,
		Command: sysutil.TokenizeCommand(cmdline),
	})
	return nil
}
