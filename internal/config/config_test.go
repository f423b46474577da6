package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	res := Parse(strings.NewReader(""))
	cfg := res.Config

	if cfg.MTAHost != "localhost" {
		t.Errorf("MTAHost = %q, want localhost", cfg.MTAHost)
	}
	if cfg.StartDelay != 10*time.Second {
		t.Errorf("StartDelay = %v, want 10s", cfg.StartDelay)
	}
	if cfg.RestartDelay != 30*time.Second {
		t.Errorf("RestartDelay = %v, want 30s", cfg.RestartDelay)
	}
	if cfg.TermWait != 30*time.Second {
		t.Errorf("TermWait = %v, want 30s", cfg.TermWait)
	}
	if cfg.HTMLReportInterval != 60*time.Second {
		t.Errorf("HTMLReportInterval = %v, want 60s", cfg.HTMLReportInterval)
	}
}

func TestValueOfSplitsOnTabAsWellAsSpace(t *testing.T) {
	res := Parse(strings.NewReader("LogDir\t/var/log/metasys\nStartDelay\t5\n"))
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Config.LogDir != "/var/log/metasys" {
		t.Errorf("LogDir = %q, want /var/log/metasys (tab-separated directive must still split)", res.Config.LogDir)
	}
	if res.Config.StartDelay != 5*time.Second {
		t.Errorf("StartDelay = %v, want 5s", res.Config.StartDelay)
	}
}

func TestParseUngroupedAndGroupedProcess(t *testing.T) {
	input := `
Process web /usr/bin/webserver --port 8080
ProcessBackend api /usr/bin/api-server -x
`
	res := Parse(strings.NewReader(input))
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Config.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(res.Config.Children))
	}

	web := res.Config.Children[0]
	if web.Label != "web" || web.Group != "" {
		t.Errorf("web decl = %+v", web)
	}
	if !equalStrings(web.Command, []string{"/usr/bin/webserver", "--port", "8080"}) {
		t.Errorf("web command = %v", web.Command)
	}

	api := res.Config.Children[1]
	if api.Label != "api" || api.Group != "Backend" {
		t.Errorf("api decl = %+v, want group Backend", api)
	}
}

func TestBareProcessLineIsNeverAlsoTreatedAsGrouped(t *testing.T) {
	// "Process web ..." matches reProcess; per the documented
	// resolution of the Open Question, it must never additionally be
	// interpreted as a grouped declaration with an empty group suffix.
	res := Parse(strings.NewReader("Process web /bin/true\n"))
	if len(res.Config.Children) != 1 {
		t.Fatalf("got %d children, want exactly 1", len(res.Config.Children))
	}
	if res.Config.Children[0].Group != "" {
		t.Errorf("Group = %q, want empty", res.Config.Children[0].Group)
	}
}

func TestDuplicateLabelIsError(t *testing.T) {
	res := Parse(strings.NewReader("Process a /bin/true\nProcess a /bin/false\n"))
	if len(res.Errors) == 0 {
		t.Fatal("expected a duplicate-label error")
	}
	if len(res.Config.Children) != 1 {
		t.Fatalf("duplicate label must not be added twice, got %d children", len(res.Config.Children))
	}
}

func TestInvalidLabelIsError(t *testing.T) {
	res := Parse(strings.NewReader("Process bad.label /bin/true\n"))
	if len(res.Errors) == 0 {
		t.Fatal("expected an invalid-label error")
	}
}

func TestEmailAllValid(t *testing.T) {
	res := Parse(strings.NewReader("Email a@example.com,b@example.com\n"))
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if !equalStrings(res.Config.Recipients, []string{"a@example.com", "b@example.com"}) {
		t.Errorf("Recipients = %v", res.Config.Recipients)
	}
}

func TestEmailAllInvalidReportsErrorAndKeepsDefault(t *testing.T) {
	res := Parse(strings.NewReader("Email not-an-address\n"))
	if len(res.Errors) == 0 {
		t.Fatal("expected an error for an all-invalid recipient list")
	}
	if len(res.Config.Recipients) != 0 {
		t.Errorf("Recipients = %v, want empty (no valid address parsed)", res.Config.Recipients)
	}
}

func TestEmailMixedValidityUpdatesWithValidSubsetAndErrors(t *testing.T) {
	res := Parse(strings.NewReader("Email a@example.com,not-an-address\n"))
	if len(res.Errors) == 0 {
		t.Fatal("expected an error reporting the invalid address")
	}
	if !equalStrings(res.Config.Recipients, []string{"a@example.com"}) {
		t.Errorf("Recipients = %v, want the valid subset", res.Config.Recipients)
	}
}

func TestEmailEmptyClearsRecipients(t *testing.T) {
	res := Parse(strings.NewReader("Email a@example.com\nEmail\n"))
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Config.Recipients) != 0 {
		t.Errorf("Recipients = %v, want empty after a blank Email directive", res.Config.Recipients)
	}
}

func TestStartDelayRejectsNegativeAndNonNumeric(t *testing.T) {
	for _, line := range []string{"StartDelay -5\n", "StartDelay abc\n"} {
		res := Parse(strings.NewReader(line))
		if len(res.Errors) == 0 {
			t.Errorf("line %q: expected an error", line)
		}
	}
}

func TestSysReportDailyAndHourly(t *testing.T) {
	res := Parse(strings.NewReader("SysReport Daily\n"))
	if res.Config.SysReportPeriod != 86400*time.Second {
		t.Errorf("Daily period = %v, want 86400s", res.Config.SysReportPeriod)
	}

	res = Parse(strings.NewReader("SysReport Hourly\n"))
	if res.Config.SysReportPeriod != 3600*time.Second {
		t.Errorf("Hourly period = %v, want 3600s", res.Config.SysReportPeriod)
	}
}

func TestSysReportUnrecognizedValueIsError(t *testing.T) {
	res := Parse(strings.NewReader("SysReport Weekly\n"))
	if len(res.Errors) == 0 {
		t.Fatal("expected an error for an unrecognized SysReport value")
	}
}

func TestHTMLReportDefaultInterval(t *testing.T) {
	res := Parse(strings.NewReader("HTMLReport /var/log/metasys/status.html\n"))
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Config.HTMLReportInterval != 60*time.Second {
		t.Errorf("HTMLReportInterval = %v, want default 60s", res.Config.HTMLReportInterval)
	}
	if res.Config.HTMLReportPath != "/var/log/metasys/status.html" {
		t.Errorf("HTMLReportPath = %q", res.Config.HTMLReportPath)
	}
}

func TestHTMLReportExplicitInterval(t *testing.T) {
	res := Parse(strings.NewReader("HTMLReport /tmp/status.html:15\n"))
	if res.Config.HTMLReportInterval != 15*time.Second {
		t.Errorf("HTMLReportInterval = %v, want 15s", res.Config.HTMLReportInterval)
	}
}

func TestUnknownDirectiveIsSilentlyIgnored(t *testing.T) {
	res := Parse(strings.NewReader("FutureDirective something\n"))
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors for an unknown directive: %v", res.Errors)
	}
}

func TestCommentsAndBlankLinesIgnored(t *testing.T) {
	input := "# a comment\n\n   \nProcess a /bin/true # trailing comment\n"
	res := Parse(strings.NewReader(input))
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Config.Children) != 1 {
		t.Fatalf("got %d children, want 1", len(res.Config.Children))
	}
}

func TestLogDirParsed(t *testing.T) {
	res := Parse(strings.NewReader("LogDir /var/log/metasys\n"))
	if res.Config.LogDir != "/var/log/metasys" {
		t.Errorf("LogDir = %q", res.Config.LogDir)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
