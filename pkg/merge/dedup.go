package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	jsoniter "github.com/json-iterator/go"
)

// Payload envelopes must round-trip float fields at full precision;
// ConfigFastest truncates floats to six digits when marshaling.
var jsonPayload = jsoniter.ConfigCompatibleWithStandardLibrary

// candidate is the in-memory index entry for one distinct key: the key
// itself, the latest tuple and sort-field values of the current winner, and
// the sequence number under which the winner's payload is stored. Payloads
// live in the record store; only this index is required to stay resident.
type candidate struct {
	key      string
	latest   []any
	sortVals []any
	seq      uint64
}

// resolver keeps exactly one record per distinct composite key: the one
// with the maximal latest tuple. When two records tie on key and latest
// value, the first one encountered in input order wins, so repeated runs
// over the same input ordering are deterministic.
type resolver struct {
	cfg     *Config
	store   recordStore
	buckets map[uint64][]int // xxhash64 of key -> candidate indexes
	cands   []candidate
	seq     uint64
	dropped int
}

func newResolver(cfg *Config, store recordStore) *resolver {
	return &resolver{
		cfg:     cfg,
		store:   store,
		buckets: make(map[uint64][]int),
	}
}

// compositeKey joins the normalized key field values with a zero byte.
// Null components are kept so records missing a key field still group
// together.
func (r *resolver) compositeKey(rec map[string]any) string {
	var b strings.Builder
	for i, kf := range r.cfg.KeyFields {
		if i > 0 {
			b.WriteByte(0)
		}
		v, ok := rec[kf.Field]
		if !ok || v == nil {
			b.WriteByte(0xff) // distinguish null from an empty string
			continue
		}
		if s, isStr := v.(string); isStr {
			if kf.CaseFold {
				s = strings.ToLower(s)
			}
			b.WriteString(s)
			continue
		}
		fmt.Fprint(&b, v)
	}
	return b.String()
}

func (r *resolver) latestTuple(rec map[string]any) []any {
	vals := make([]any, len(r.cfg.LatestFields))
	for i, f := range r.cfg.LatestFields {
		vals[i] = rec[f]
	}
	return vals
}

func (r *resolver) sortTuple(rec map[string]any) []any {
	if len(r.cfg.SortFields) == 0 {
		return nil
	}
	vals := make([]any, len(r.cfg.SortFields))
	for i, f := range r.cfg.SortFields {
		vals[i] = rec[f]
	}
	return vals
}

// Add feeds one filtered record into the resolver. The record's payload is
// serialized into the store; if a sibling with the same key already holds a
// latest tuple ≥ this record's, the record is discarded instead.
func (r *resolver) Add(rec map[string]any) error {
	seq := r.seq
	r.seq++

	key := r.compositeKey(rec)
	latest := r.latestTuple(rec)
	h := xxhash.Sum64String(key)

	idx := -1
	for _, i := range r.buckets[h] {
		if r.cands[i].key == key {
			idx = i
			break
		}
	}

	if idx < 0 {
		payload, err := jsonPayload.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
		if err := r.store.Put(seq, payload); err != nil {
			return err
		}
		r.buckets[h] = append(r.buckets[h], len(r.cands))
		r.cands = append(r.cands, candidate{
			key:      key,
			latest:   latest,
			sortVals: r.sortTuple(rec),
			seq:      seq,
		})
		return nil
	}

	// Existing key: replace only on strictly greater latest tuple, so ties
	// keep the first-encountered record.
	cand := &r.cands[idx]
	if compareTuples(latest, cand.latest) <= 0 {
		r.dropped++
		return nil
	}

	payload, err := jsonPayload.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := r.store.Put(seq, payload); err != nil {
		return err
	}
	if err := r.store.Delete(cand.seq); err != nil {
		return err
	}
	r.dropped++
	cand.latest = latest
	cand.sortVals = r.sortTuple(rec)
	cand.seq = seq
	return nil
}

// Len returns the number of distinct keys seen so far.
func (r *resolver) Len() int { return len(r.cands) }

// Dropped returns how many duplicate records lost their key.
func (r *resolver) Dropped() int { return r.dropped }

// Finalize orders the winners and returns their store sequence numbers in
// output order. The deduplicated set is first ordered by latest tuple
// descending with null latest values last (ties in key encounter order);
// with sort fields configured a stable sort by those fields runs on top, so
// equal sort keys keep the dedup order.
func (r *resolver) Finalize() []uint64 {
	order := make([]int, len(r.cands))
	for i := range order {
		order[i] = i
	}

	// Null compares smallest, so descending order puts it last.
	sort.SliceStable(order, func(a, b int) bool {
		return compareTuples(r.cands[order[a]].latest, r.cands[order[b]].latest) > 0
	})

	if len(r.cfg.SortFields) > 0 {
		desc := r.cfg.SortDescending
		sort.SliceStable(order, func(a, b int) bool {
			c := compareTuples(r.cands[order[a]].sortVals, r.cands[order[b]].sortVals)
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	seqs := make([]uint64, len(order))
	for i, idx := range order {
		seqs[i] = r.cands[idx].seq
	}
	return seqs
}
