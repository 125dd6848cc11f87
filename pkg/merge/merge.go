package merge

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	maxDisplayPaths = 10
	recordChanSize  = 512
)

// Options are the per-run switches of a merge job, kept apart from the
// immutable Config so one Config can serve repeated runs.
type Options struct {
	// Overwrite permits replacing an existing destination file. Without it
	// a colliding job is skipped with a warning, not an error.
	Overwrite bool
	// DropEmpty removes empty-valued fields from every output record.
	DropEmpty bool
	// SortKeys serializes each record's fields in lexicographic order.
	SortKeys bool
	// Progress logs row counts during the cleaning pass.
	Progress bool

	// SpillDir and SpillThreshold bound the dedup stage's memory: once the
	// candidate set holds SpillThreshold records their payloads move to a
	// BadgerDB store under SpillDir. Zero threshold keeps everything in
	// memory.
	SpillDir       string
	SpillThreshold int
}

// MergeFiles merges the configured inputs into one de-duplicated output
// file:
//
//   - drop records older than the configured floor
//   - for each distinct key keep the record with the maximal latest value
//   - sort the result by the configured fields, or latest descending
//   - project the configured field subset
//   - serialize one compact record per line, optionally dropping empty
//     fields and sorting keys
//
// The returned bool reports whether an output file was written; a job
// skipped because the destination already exists returns (false, nil).
func MergeFiles(cfg *Config, opts Options) (bool, error) {
	if err := cfg.Validate(); err != nil {
		return false, fmt.Errorf("invalid merge config: %w", err)
	}

	if len(cfg.InPaths) > maxDisplayPaths {
		log.Printf("[Merge] Merging items from [%d paths] into <%s>", len(cfg.InPaths), cfg.OutPath)
	} else {
		log.Printf("[Merge] Merging items from %v into <%s>", cfg.InPaths, cfg.OutPath)
	}

	if !opts.Overwrite {
		if _, err := os.Stat(cfg.OutPath); err == nil {
			log.Printf("[Merge] Output file <%s> already exists, use overwrite to replace it", cfg.OutPath)
			return false, nil
		}
	}

	files, err := expandPaths(cfg.InPaths)
	if err != nil {
		return false, err
	}
	log.Printf("[Scan] Reading %d file(s)", len(files))

	spillDir := opts.SpillDir
	if spillDir == "" {
		spillDir = filepath.Join(os.TempDir(), "board-game-merger", "spill")
	}
	spillDir = filepath.Join(spillDir, fmt.Sprintf("dedup-%d", time.Now().UnixNano()))

	store := newSpillStore(spillDir, opts.SpillThreshold)
	defer store.Close()

	resolver := newResolver(cfg, store)

	if cfg.hasFloor() {
		log.Printf("[Merge] Filtering out rows before <%s>", cfg.LatestMin.Format(time.RFC3339))
	}
	log.Printf("[Merge] Merging rows with identical keys: %v", keyFieldNames(cfg.KeyFields))
	log.Printf("[Merge] Keeping latest by: %v", cfg.LatestFields)

	scanned := 0
	eg, ctx := errgroup.WithContext(context.Background())
	records := make(chan map[string]any, recordChanSize)

	eg.Go(func() error {
		defer close(records)
		return scanFiles(ctx, files, cfg.Schema, records)
	})
	eg.Go(func() error {
		for rec := range records {
			scanned++
			if !cfg.passesFloor(rec) {
				continue
			}
			if err := resolver.Add(rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return false, err
	}

	total := resolver.Len()
	log.Printf("[Dedup] Scanned %d record(s), kept %d distinct key(s), dropped %d duplicate(s)",
		scanned, total, resolver.Dropped())

	seqs := resolver.Finalize()
	if len(cfg.SortFields) > 0 {
		direction := "ascending"
		if cfg.SortDescending {
			direction = "descending"
		}
		log.Printf("[Merge] Sorting data by: %v (%s)", cfg.SortFields, direction)
	}

	src := func(yield func(payload []byte) error) error {
		for _, seq := range seqs {
			payload, err := store.Get(seq)
			if err != nil {
				return err
			}
			if err := yield(payload); err != nil {
				return err
			}
		}
		return nil
	}

	err = cfg.writeRecords(src, total, writeOptions{
		dropEmpty: opts.DropEmpty,
		sortKeys:  opts.SortKeys,
		progress:  opts.Progress,
	})
	if err != nil {
		return false, err
	}

	log.Printf("[Merge] Done, wrote %d record(s) to <%s>", total, cfg.OutPath)
	return true, nil
}

func keyFieldNames(keys []KeyField) []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Field
	}
	return names
}
