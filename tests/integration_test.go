package tests

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/recommend-games/board-game-merger/pkg/faker"
	"github.com/recommend-games/board-game-merger/pkg/merge"
	"github.com/recommend-games/board-game-merger/pkg/registry"
	"github.com/recommend-games/board-game-merger/pkg/schema"
)

var json = jsoniter.ConfigFastest

func readRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var recs []map[string]any
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid output line %q: %v", line, err)
		}
		recs = append(recs, rec)
	}
	return recs
}

func TestMergeGeneratedGameFeeds(t *testing.T) {
	dir := t.TempDir()
	feedsDir := filepath.Join(dir, "feeds")
	dataDir := filepath.Join(dir, "data")

	g := faker.New("bgg", 42)
	feedDir := filepath.Join(feedsDir, "bgg", schema.GameItem)
	if _, err := g.WriteFeed(feedDir, schema.GameItem, 500, 50); err != nil {
		t.Fatalf("writing fake feed: %v", err)
	}

	cfg, err := registry.Config("bgg", schema.GameItem, registry.Options{
		FeedsDir: feedsDir,
		DataDir:  dataDir,
		Clean:    true,
	})
	if err != nil {
		t.Fatalf("building config: %v", err)
	}

	opts := merge.Options{
		DropEmpty:      true,
		SortKeys:       true,
		SpillDir:       filepath.Join(dir, "spill"),
		SpillThreshold: 20, // force the disk store
	}
	wrote, err := merge.MergeFiles(cfg, opts)
	if err != nil {
		t.Fatalf("MergeFiles failed: %v", err)
	}
	if !wrote {
		t.Fatalf("Expected output to be written")
	}

	recs := readRecords(t, cfg.OutPath)
	if len(recs) == 0 || len(recs) > 50 {
		t.Fatalf("Expected between 1 and 50 distinct games, got %d", len(recs))
	}

	seen := make(map[float64]bool)
	prev := -1.0
	for _, rec := range recs {
		id, ok := rec["bgg_id"].(float64)
		if !ok {
			t.Fatalf("Record without bgg_id: %v", rec)
		}
		if seen[id] {
			t.Errorf("Duplicate bgg_id %v in output", id)
		}
		seen[id] = true
		if id < prev {
			t.Errorf("Output not sorted by bgg_id: %v after %v", id, prev)
		}
		prev = id

		if _, ok := rec["scraped_at"]; ok {
			t.Errorf("Expected scraped_at excluded from cleaned output")
		}
		for name, v := range rec {
			if s, ok := v.(string); ok && s == "" {
				t.Errorf("Expected empty field %s dropped", name)
			}
		}
	}
}

func TestMergeGeneratedUserFeedsCaseFold(t *testing.T) {
	dir := t.TempDir()
	feedsDir := filepath.Join(dir, "feeds")
	dataDir := filepath.Join(dir, "data")

	g := faker.New("bgg", 7)
	feedDir := filepath.Join(feedsDir, "bgg", schema.UserItem)
	if _, err := g.WriteFeed(feedDir, schema.UserItem, 200, 10); err != nil {
		t.Fatalf("writing fake feed: %v", err)
	}

	cfg, err := registry.Config("bgg", schema.UserItem, registry.Options{
		FeedsDir: feedsDir,
		DataDir:  dataDir,
		Clean:    true,
	})
	if err != nil {
		t.Fatalf("building config: %v", err)
	}

	wrote, err := merge.MergeFiles(cfg, merge.Options{DropEmpty: true, SortKeys: true})
	if err != nil {
		t.Fatalf("MergeFiles failed: %v", err)
	}
	if !wrote {
		t.Fatalf("Expected output to be written")
	}

	recs := readRecords(t, cfg.OutPath)
	// The generator draws from 10 user names with random casing; the
	// case-folded key must collapse them to at most 10 distinct users.
	if len(recs) == 0 || len(recs) > 10 {
		t.Fatalf("Expected at most 10 distinct users, got %d", len(recs))
	}
	seen := make(map[string]bool)
	for _, rec := range recs {
		name, ok := rec["bgg_user_name"].(string)
		if !ok {
			t.Fatalf("Record without bgg_user_name: %v", rec)
		}
		folded := strings.ToLower(name)
		if seen[folded] {
			t.Errorf("User %s appears twice after case-folding", folded)
		}
		seen[folded] = true
	}
}

func TestBatchMergeAllSites(t *testing.T) {
	dir := t.TempDir()
	feedsDir := filepath.Join(dir, "feeds")
	dataDir := filepath.Join(dir, "data")

	// Only one site has feeds; the others must fail individually without
	// aborting the batch.
	g := faker.New("bgg", 99)
	if _, err := g.WriteFeed(filepath.Join(feedsDir, "bgg", schema.GameItem), schema.GameItem, 50, 10); err != nil {
		t.Fatalf("writing fake feed: %v", err)
	}

	configs, err := registry.AllConfigs(registry.Options{
		FeedsDir: feedsDir,
		DataDir:  dataDir,
		Clean:    true,
	})
	if err != nil {
		t.Fatalf("AllConfigs failed: %v", err)
	}

	merged, failed := 0, 0
	for _, cfg := range configs {
		wrote, err := merge.MergeFiles(cfg, merge.Options{DropEmpty: true})
		switch {
		case err != nil:
			failed++
		case wrote:
			merged++
		}
	}
	if merged != 1 {
		t.Errorf("Expected exactly 1 merged site, got %d", merged)
	}
	if failed != len(configs)-1 {
		t.Errorf("Expected %d failed jobs, got %d", len(configs)-1, failed)
	}

	out := filepath.Join(dataDir, "scraped", "bgg_GameItem.jl")
	if recs := readRecords(t, out); len(recs) == 0 {
		t.Errorf("Expected merged bgg games in %s", out)
	}
}
