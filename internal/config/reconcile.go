package config

import (
	"fmt"
	"time"

	"metasys/internal/proctable"
)

// Reconcile walks a freshly parsed Config's declarations against the
// live process table and mutates it in place per §4.6:
//
//   - a new label is created with ScheduledStart = now (launch ASAP);
//   - an existing label whose command changed has its command updated
//     and ScheduledStart forced to now, triggering an immediate
//     stop-then-start;
//   - any label present in the table but absent from the new
//     declarations is marked for removal.
//
// Configuration errors accumulated during Parse never cause a label to
// be dropped here — only the absence of a label from a *successfully
// parsed* file does, per §8's "no configuration error during a reload
// ever removes a child" property.
func Reconcile(t *proctable.Table, cfg *Config, now time.Time) []error {
	var errs []error
	declared := make(map[string]bool, len(cfg.Children))

	for _, decl := range cfg.Children {
		if declared[decl.Label] {
			errs = append(errs, fmt.Errorf("duplicate label %q", decl.Label))
			continue
		}
		declared[decl.Label] = true

		existing, ok := t.Get(decl.Label)
		if !ok {
			t.Put(&proctable.Child{
				Label:          decl.Label,
				Command:        decl.Command,
				Group:          decl.Group,
				ScheduledStart: now.Unix(),
			})
			continue
		}

		if !sameCommand(existing.Command, decl.Command) || existing.Group != decl.Group {
			existing.Command = decl.Command
			existing.Group = decl.Group
			existing.ScheduledStart = now.Unix()
		}
	}

	for _, label := range t.Labels() {
		if !declared[label] {
			c, _ := t.Get(label)
			c.MarkForRemoval()
		}
	}

	return errs
}

func sameCommand(a, b []string) bool {
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
