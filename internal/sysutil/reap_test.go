package sysutil

import (
	"os/exec"
	"testing"
	"time"
)

func TestReapOneNormalExit(t *testing.T) {
	cmd := exec.Command("/bin/true")
	if err := cmd.Start(); err != nil {
		t.Skipf("/bin/true unavailable: %v", err)
	}
	pid := cmd.Process.Pid

	var res ReapResult
	var ok bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var err error
		res, ok, err = ReapOne(pid)
		if err != nil {
			t.Fatalf("ReapOne: %v", err)
		}
		if ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !ok {
		t.Fatal("child was never reaped within the deadline")
	}
	if !res.Exited || res.ExitCode != 0 {
		t.Errorf("res = %+v, want Exited=true ExitCode=0", res)
	}
}

func TestReapAnyReturnsNotOkWithNoExitedChildren(t *testing.T) {
	_, ok, err := ReapAny()
	if err != nil {
		t.Fatalf("ReapAny: %v", err)
	}
	if ok {
		t.Error("ReapAny should report nothing to reap when no child has exited")
	}
}
