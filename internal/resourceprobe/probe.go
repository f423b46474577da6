// Package resourceprobe implements the "optional per-pid resource
// probe" named in §1: CPU%, memory%, RSS, and run state, read from
// /proc. Reading kernel-exposed per-process statistics is explicitly
// out of scope for the core (§1) — this package is the external
// collaborator behind that interface, not part of supervision logic,
// and the report renderer treats its absence as perfectly normal.
package resourceprobe

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Sample is one point-in-time reading for a single pid.
type Sample struct {
	CPUPercent float64
	MemPercent float64
	VSZKiB     uint64
	RSSKiB     uint64
	State      string
}

// Probe is the interface the report renderer consumes. A nil Probe
// (or one returning an error) simply omits resource lines, per §4.7.
type Probe interface {
	Sample(pid int) (Sample, error)
}

// ProcProbe reads /proc/<pid>/stat and /proc/<pid>/status on Linux.
// CPU% is approximated from process jiffies over wall-clock elapsed
// since the previous sample of the same pid; a first sample for a pid
// reports 0% CPU until a second sample gives it a baseline.
type ProcProbe struct {
	clockTicks  int64
	pageSizeKiB uint64
	totalMemKiB uint64

	prev map[int]cpuSnapshot
}

type cpuSnapshot struct {
	jiffies uint64
	at      time.Time
}

// NewProcProbe constructs a probe, reading system-wide constants once.
// It returns an error (and the caller should fall back to no probe at
// all) when /proc is not the expected shape — e.g. non-Linux hosts.
func NewProcProbe() (*ProcProbe, error) {
	memTotal, err := readMemTotalKiB()
	if err != nil {
		return nil, fmt.Errorf("resource probe unavailable: %w", err)
	}

	return &ProcProbe{
		clockTicks:  100, // USER_HZ is 100 on every Linux platform metasys targets
		pageSizeKiB: 4,
		totalMemKiB: memTotal,
		prev:        make(map[int]cpuSnapshot),
	}, nil
}

func (p *ProcProbe) Sample(pid int) (Sample, error) {
	stat, err := readStat(pid)
	if err != nil {
		return Sample{}, err
	}

	status, err := readStatus(pid)
	if err != nil {
		return Sample{}, err
	}

	now := time.Now()
	jiffies := stat.utime + stat.stime

	var cpuPct float64
	if prev, ok := p.prev[pid]; ok {
		elapsed := now.Sub(prev.at).Seconds()
		if elapsed > 0 {
			deltaJiffies := float64(jiffies - prev.jiffies)
			cpuPct = 100 * (deltaJiffies / float64(p.clockTicks)) / elapsed
		}
	}
	p.prev[pid] = cpuSnapshot{jiffies: jiffies, at: now}

	var memPct float64
	if p.totalMemKiB > 0 {
		memPct = 100 * float64(status.vmRSSKiB) / float64(p.totalMemKiB)
	}

	return Sample{
		CPUPercent: cpuPct,
		MemPercent: memPct,
		VSZKiB:     status.vmSizeKiB,
		RSSKiB:     status.vmRSSKiB,
		State:      stat.state,
	}, nil
}

type procStat struct {
	state        string
	utime, stime uint64
}

func readStat(pid int) (procStat, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return procStat{}, err
	}

	// Fields after the executable name (which may itself contain
	// spaces/parens) start right after the last ')'.
	s := string(data)
	idx := strings.LastIndexByte(s, ')')
	if idx < 0 || idx+2 >= len(s) {
		return procStat{}, fmt.Errorf("malformed /proc/%d/stat", pid)
	}

	fields := strings.Fields(s[idx+2:])
	// fields[0] = state, fields[11] = utime, fields[12] = stime (0-indexed
	// from state, per proc(5): state(0) ppid(1) pgrp(2) session(3)
	// tty_nr(4) tpgid(5) flags(6) minflt(7) cminflt(8) majflt(9)
	// cmajflt(10) utime(11) stime(12)).
	if len(fields) < 13 {
		return procStat{}, fmt.Errorf("short /proc/%d/stat", pid)
	}

	utime, _ := strconv.ParseUint(fields[11], 10, 64)
	stime, _ := strconv.ParseUint(fields[12], 10, 64)

	return procStat{state: fields[0], utime: utime, stime: stime}, nil
}

type procStatus struct {
	vmSizeKiB uint64
	vmRSSKiB  uint64
}

func readStatus(pid int) (procStatus, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return procStatus{}, err
	}
	defer f.Close()

	var st procStatus
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "VmSize:"):
			st.vmSizeKiB = parseKiBField(line)
		case strings.HasPrefix(line, "VmRSS:"):
			st.vmRSSKiB = parseKiBField(line)
		}
	}

	return st, scanner.Err()
}

func parseKiBField(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	n, _ := strconv.ParseUint(fields[1], 10, 64)
	return n
}

func readMemTotalKiB() (uint64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "MemTotal:") {
			return parseKiBField(line), nil
		}
	}
	return 0, fmt.Errorf("MemTotal not found in /proc/meminfo")
}
