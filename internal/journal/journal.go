// Package journal keeps an in-memory, process-lifetime-only history
// of restart/exit events per child, feeding the report
// renderer's "recent events" section. It is deliberately NOT
// persistence of supervision state: the badger instance backing it is
// opened in-memory and is gone the moment the supervisor exits, so it
// never stands in for rebuilding the process table from the config
// file on the next startup (§1's non-goal on persistence is about
// that table, not about this forgettable event history). Record never
// discards older events, so the history grows for as long as the
// process runs; Recent reads back the newest ones.
package journal

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

// Event records one notable thing that happened to a child.
type Event struct {
	Label        string
	Kind         string // "launched", "launch_failed", "exited", "restart_scheduled", "terminated", "zombie"
	Time         time.Time
	ExitCode     int
	Signaled     bool
	CoreDump     bool
	RestartCount int
	Detail       string
}

// Journal is a best-effort event log. Every public method swallows
// storage errors into a log-worthy return rather than propagating
// them into the control loop, matching §7's policy that nothing here
// may interrupt supervision.
type Journal struct {
	mu  sync.Mutex
	db  *badger.DB
	seq uint64
}

// Open starts an in-memory badger instance. Nothing is ever written
// to disk.
func Open() (*Journal, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends an event, CBOR-encoded, keyed by a monotonically
// increasing sequence number so Recent can walk back from the newest.
func (j *Journal) Record(ev Event) error {
	if j == nil {
		return nil
	}

	j.mu.Lock()
	j.seq++
	seq := j.seq
	j.mu.Unlock()

	data, err := cbor.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode journal event: %w", err)
	}

	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)

	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Recent returns up to limit most-recent events for label (or every
// label, when label is ""), newest first.
func (j *Journal) Recent(label string, limit int) ([]Event, error) {
	if j == nil {
		return nil, nil
	}

	var out []Event

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}); it.Valid(); it.Next() {
			if len(out) >= limit && limit > 0 {
				break
			}

			var ev Event
			err := it.Item().Value(func(val []byte) error {
				return cbor.Unmarshal(val, &ev)
			})
			if err != nil {
				return err
			}

			if label == "" || ev.Label == label {
				out = append(out, ev)
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	return out, nil
}
