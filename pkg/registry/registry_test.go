package registry

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/recommend-games/board-game-merger/pkg/schema"
)

func testOptions() Options {
	return Options{
		FeedsDir: "feeds",
		DataDir:  "data",
		Now:      time.Date(2021, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := Config("bgg", schema.GameItem, testOptions())
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}

	expectedIn := []string{filepath.Join("feeds", "bgg", "GameItem")}
	if !reflect.DeepEqual(cfg.InPaths, expectedIn) {
		t.Errorf("Expected in paths %v, got %v", expectedIn, cfg.InPaths)
	}

	expectedOut := filepath.Join("feeds", "bgg", "GameItem", "2021-06-15T12-00-00-merged.jl")
	if cfg.OutPath != expectedOut {
		t.Errorf("Expected out path %s, got %s", expectedOut, cfg.OutPath)
	}

	if len(cfg.KeyFields) != 1 || cfg.KeyFields[0].Field != "bgg_id" {
		t.Errorf("Expected bgg_id key, got %v", cfg.KeyFields)
	}
	if !reflect.DeepEqual(cfg.LatestFields, []string{"scraped_at"}) {
		t.Errorf("Expected scraped_at latest field, got %v", cfg.LatestFields)
	}
	if !cfg.LatestMin.IsZero() {
		t.Errorf("Expected no recency floor by default, got %v", cfg.LatestMin)
	}
	if cfg.SortFields != nil || cfg.FieldsInclude != nil || cfg.FieldsExclude != nil {
		t.Errorf("Expected no cleaning profile without clean")
	}
}

func TestConfigClean(t *testing.T) {
	opts := testOptions()
	opts.Clean = true

	cfg, err := Config("bgg", schema.GameItem, opts)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}

	expectedOut := filepath.Join("data", "scraped", "bgg_GameItem.jl")
	if cfg.OutPath != expectedOut {
		t.Errorf("Expected out path %s, got %s", expectedOut, cfg.OutPath)
	}
	if !reflect.DeepEqual(cfg.SortFields, []string{"bgg_id"}) {
		t.Errorf("Expected sort by key fields, got %v", cfg.SortFields)
	}
	if !reflect.DeepEqual(cfg.FieldsExclude, []string{"published_at", "updated_at", "scraped_at"}) {
		t.Errorf("Unexpected exclude list: %v", cfg.FieldsExclude)
	}
	if cfg.FieldsInclude != nil {
		t.Errorf("Expected no include list for bgg games")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid clean config, got %v", err)
	}
}

func TestConfigUserCaseFold(t *testing.T) {
	cfg, err := Config("bgg", schema.UserItem, testOptions())
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if len(cfg.KeyFields) != 1 || cfg.KeyFields[0].Field != "bgg_user_name" || !cfg.KeyFields[0].CaseFold {
		t.Errorf("Expected case-folded bgg_user_name key, got %v", cfg.KeyFields)
	}
}

func TestConfigRatingCompositeKey(t *testing.T) {
	cfg, err := Config("bgg", schema.RatingItem, testOptions())
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if len(cfg.KeyFields) != 2 {
		t.Fatalf("Expected composite key, got %v", cfg.KeyFields)
	}
	if cfg.KeyFields[0].Field != "bgg_user_name" || !cfg.KeyFields[0].CaseFold {
		t.Errorf("Expected case-folded user name first, got %v", cfg.KeyFields[0])
	}
	if cfg.KeyFields[1].Field != "bgg_id" || cfg.KeyFields[1].CaseFold {
		t.Errorf("Expected bgg_id second, got %v", cfg.KeyFields[1])
	}
}

func TestConfigHotnessIncludeProfile(t *testing.T) {
	opts := testOptions()
	opts.Clean = true

	cfg, err := Config("bgg_hotness", schema.GameItem, opts)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if !reflect.DeepEqual(cfg.SortFields, []string{"published_at", "rank"}) {
		t.Errorf("Unexpected sort fields: %v", cfg.SortFields)
	}
	expected := []string{"published_at", "rank", "add_rank", "bgg_id", "name", "year", "image_url"}
	if !reflect.DeepEqual(cfg.FieldsInclude, expected) {
		t.Errorf("Unexpected include list: %v", cfg.FieldsInclude)
	}
	if cfg.FieldsExclude != nil {
		t.Errorf("Include and exclude must not both be set")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid hotness config, got %v", err)
	}
}

func TestConfigRecencyFloor(t *testing.T) {
	opts := testOptions()
	opts.LatestMinDays = 30

	cfg, err := Config("bgg", schema.GameItem, opts)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	expected := opts.Now.Add(-30 * 24 * time.Hour)
	if !cfg.LatestMin.Equal(expected) {
		t.Errorf("Expected floor %v, got %v", expected, cfg.LatestMin)
	}
}

func TestConfigExplicitPathsOverrideDefaults(t *testing.T) {
	opts := testOptions()
	opts.InPaths = []string{"custom/a.jl", "custom/b.jl"}
	opts.OutPath = "custom/out.jl"

	cfg, err := Config("wikidata", schema.GameItem, opts)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if !reflect.DeepEqual(cfg.InPaths, opts.InPaths) {
		t.Errorf("Expected explicit in paths, got %v", cfg.InPaths)
	}
	if cfg.OutPath != "custom/out.jl" {
		t.Errorf("Expected explicit out path, got %s", cfg.OutPath)
	}
}

func TestConfigUnknownSelectors(t *testing.T) {
	if _, err := Config("boardgamearena", schema.GameItem, testOptions()); err == nil {
		t.Errorf("Expected error for unknown site")
	}
	if _, err := Config("wikidata", schema.UserItem, testOptions()); err == nil {
		t.Errorf("Expected error for item kind the site does not scrape")
	}
}

func TestAllConfigs(t *testing.T) {
	configs, err := AllConfigs(testOptions())
	if err != nil {
		t.Fatalf("AllConfigs failed: %v", err)
	}
	// 5 single-item sites plus 3 bgg item kinds.
	if len(configs) != 8 {
		t.Fatalf("Expected 8 configs, got %d", len(configs))
	}
	for _, cfg := range configs {
		if len(cfg.InPaths) == 0 || cfg.OutPath == "" {
			t.Errorf("Expected derived paths for every config, got %v -> %s", cfg.InPaths, cfg.OutPath)
		}
	}
}
