package sysutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// TokenizeCommand splits a command line on whitespace and strips a
// single leading/trailing single or double quote character from each
// token. There is no shell interpretation, no environment substitution,
// and no quoted-string grouping — a token containing an internal space
// cannot be produced this way. This is a faithful limitation, not an
// oversight: §9 calls out that a "real" reimplementation must preserve
// it rather than silently upgrading to shell-style quoting.
func TokenizeCommand(line string) []string {
	fields := strings.Fields(line)
	out := make([]string, 0, len(fields))
	for _, tok := range fields {
		out = append(out, stripQuotes(tok))
	}
	return out
}

func stripQuotes(tok string) string {
	tok = strings.TrimPrefix(tok, `"`)
	tok = strings.TrimPrefix(tok, `'`)
	tok = strings.TrimSuffix(tok, `"`)
	tok = strings.TrimSuffix(tok, `'`)
	return tok
}

// augmentedPath remembers the PATH value InitPath installed; lookups
// (ResolveExecutable, exec.Command) read PATH from the environment.
var augmentedPath string

// InitPath augments PATH with "./bin" and "." ahead of the inherited
// value, once, at supervisor startup, per §6.
func InitPath() {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	extra := []string{filepath.Join(cwd, "bin"), cwd}
	augmentedPath = strings.Join(extra, string(os.PathListSeparator)) +
		string(os.PathListSeparator) + os.Getenv("PATH")

	_ = os.Setenv("PATH", augmentedPath)
}

// ResolveExecutable resolves argv[0] through the (already augmented)
// PATH, matching the shell's own lookup rules via exec.LookPath.
func ResolveExecutable(argv0 string) (string, error) {
	return exec.LookPath(argv0)
}
