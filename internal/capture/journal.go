// Package capture persists raw packets in an append-only pebble journal.
//
// Keys are ksuids so a scan returns entries in capture order. Values are a
// single direction byte followed by the packet exactly as it crossed the wire.
package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// Direction records which way a packet travelled.
type Direction byte

const (
	DirectionIn  Direction = 'i'
	DirectionOut Direction = 'o'
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound     = errors.New("capture: entry not found")
	ErrCorruptEntry = errors.New("capture: corrupt entry")
)

// Entry is one journaled packet.
type Entry struct {
	ID        ksuid.KSUID
	Direction Direction
	Raw       []byte
}

func (e Entry) Time() time.Time {
	return e.ID.Time()
}

type Journal struct {
	db *pebble.DB

	mu   sync.Mutex
	last ksuid.KSUID
}

func Open(dir string) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", dir, err)
	}
	j := &Journal{db: db}

	// resume ordering after the newest existing key
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		db.Close()
		return nil, err
	}
	if iter.Last() {
		if id, err := ksuid.FromBytes(iter.Key()); err == nil {
			j.last = id
		}
	}
	if err := iter.Close(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Append stores raw and returns its key. Keys are strictly increasing for the
// lifetime of the journal, even when several packets land in the same second.
func (j *Journal) Append(dir Direction, raw []byte) (ksuid.KSUID, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id := ksuid.New()
	if ksuid.Compare(id, j.last) <= 0 {
		id = j.last.Next()
	}

	value := make([]byte, 0, 1+len(raw))
	value = append(value, byte(dir))
	value = append(value, raw...)
	if err := j.db.Set(id.Bytes(), value, pebble.Sync); err != nil {
		return ksuid.Nil, fmt.Errorf("capture: append: %w", err)
	}
	j.last = id
	return id, nil
}

func (j *Journal) Get(id ksuid.KSUID) (Entry, error) {
	data, closer, err := j.db.Get(id.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Entry{}, err
	}
	defer closer.Close()
	return decodeEntry(id, data)
}

// Scan calls fn for every entry in key order. A non-nil error from fn stops
// the scan and is returned.
func (j *Journal) Scan(fn func(Entry) error) error {
	iter, err := j.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			iter.Close()
			return fmt.Errorf("%w: key: %v", ErrCorruptEntry, err)
		}
		e, err := decodeEntry(id, iter.Value())
		if err != nil {
			iter.Close()
			return err
		}
		if err := fn(e); err != nil {
			iter.Close()
			return err
		}
	}
	return iter.Close()
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// decodeEntry copies data; pebble owns the slice only until the iterator
// moves or the closer runs.
func decodeEntry(id ksuid.KSUID, data []byte) (Entry, error) {
	if len(data) < 1 {
		return Entry{}, fmt.Errorf("%w: %s has no direction byte", ErrCorruptEntry, id)
	}
	raw := make([]byte, len(data)-1)
	copy(raw, data[1:])
	return Entry{ID: id, Direction: Direction(data[0]), Raw: raw}, nil
}
