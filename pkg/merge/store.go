package merge

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// recordStore holds the serialized payload of every current dedup winner,
// keyed by the record's input sequence number. The dedup stage is the one
// point of the pipeline that needs the whole candidate set at once, so the
// store starts in memory and spills to BadgerDB when the candidate count
// crosses the configured threshold.
type recordStore interface {
	Put(seq uint64, payload []byte) error
	Get(seq uint64) ([]byte, error)
	Delete(seq uint64) error
	Len() int
	Close() error
}

/* ---------------------------- in-memory store ---------------------------- */

type memoryStore struct {
	records map[uint64][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[uint64][]byte)}
}

func (m *memoryStore) Put(seq uint64, payload []byte) error {
	m.records[seq] = payload
	return nil
}

func (m *memoryStore) Get(seq uint64) ([]byte, error) {
	p, ok := m.records[seq]
	if !ok {
		return nil, fmt.Errorf("record %d not found", seq)
	}
	return p, nil
}

func (m *memoryStore) Delete(seq uint64) error {
	delete(m.records, seq)
	return nil
}

func (m *memoryStore) Len() int { return len(m.records) }

func (m *memoryStore) Close() error {
	m.records = nil
	return nil
}

/* ----------------------------- badger store ------------------------------ */

type badgerStore struct {
	db   *badger.DB
	path string
	n    int
}

func newBadgerStore(path string) (*badgerStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating spill dir: %w", err)
	}
	opts := badger.DefaultOptions(path).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening spill store: %w", err)
	}
	return &badgerStore{db: db, path: path}, nil
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func (b *badgerStore) Put(seq uint64, payload []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(seqKey(seq), payload)
	})
	if err == nil {
		b.n++
	}
	return err
}

func (b *badgerStore) Get(seq uint64) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(seqKey(seq))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			data = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", seq, err)
	}
	return data, nil
}

func (b *badgerStore) Delete(seq uint64) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(seqKey(seq))
	})
	if err == nil {
		b.n--
	}
	return err
}

func (b *badgerStore) Len() int { return b.n }

func (b *badgerStore) Close() error {
	if err := b.db.Close(); err != nil {
		return err
	}
	return os.RemoveAll(b.path)
}

/* ----------------------------- spill wrapper ----------------------------- */

// spillStore keeps payloads in memory until threshold records are resident,
// then migrates everything into a badger store on disk. threshold <= 0
// disables spilling.
type spillStore struct {
	recordStore
	dir       string
	threshold int
	spilled   bool
}

func newSpillStore(dir string, threshold int) *spillStore {
	return &spillStore{
		recordStore: newMemoryStore(),
		dir:         dir,
		threshold:   threshold,
	}
}

func (s *spillStore) Put(seq uint64, payload []byte) error {
	if !s.spilled && s.threshold > 0 && s.recordStore.Len() >= s.threshold {
		if err := s.spill(); err != nil {
			return err
		}
	}
	return s.recordStore.Put(seq, payload)
}

func (s *spillStore) spill() error {
	mem, ok := s.recordStore.(*memoryStore)
	if !ok {
		return nil
	}
	log.Printf("[Dedup] Candidate set reached %d records, spilling to <%s>", mem.Len(), s.dir)

	bs, err := newBadgerStore(s.dir)
	if err != nil {
		return err
	}
	for seq, payload := range mem.records {
		if err := bs.Put(seq, payload); err != nil {
			_ = bs.Close()
			return err
		}
	}
	_ = mem.Close()
	s.recordStore = bs
	s.spilled = true
	return nil
}
