// Package registry maps site and item-kind selectors to merge
// configurations: key fields, latest fields, default paths and cleaning
// profiles. All per-site knowledge lives in one declarative table instead
// of nested constructor branches, and every path derives from explicitly
// injected directories.
package registry

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/recommend-games/board-game-merger/pkg/merge"
	"github.com/recommend-games/board-game-merger/pkg/schema"
)

// Sites lists every known site selector, in batch execution order.
var Sites = []string{"bgg_hotness", "dbpedia", "luding", "spielen", "wikidata", "bgg"}

// entry is one row of the registry table: the merge defaults for a
// site+item pair.
type entry struct {
	keyFields    []merge.KeyField
	latestFields []string

	// clean profile: applied only when clean results are requested
	cleanSortFields []string
	cleanInclude    []string
	cleanExclude    []string
}

var defaultCleanExclude = []string{"published_at", "updated_at", "scraped_at"}

// table holds the registry rows keyed by "site/item". Sites without an
// explicit row fall back to the per-site default (key <site>_id, latest
// scraped_at) for game items only.
var table = map[string]entry{
	"bgg/" + schema.GameItem: {
		keyFields:    []merge.KeyField{{Field: "bgg_id"}},
		latestFields: []string{"scraped_at"},
		cleanExclude: defaultCleanExclude,
	},
	"bgg/" + schema.UserItem: {
		keyFields:    []merge.KeyField{{Field: "bgg_user_name", CaseFold: true}},
		latestFields: []string{"scraped_at"},
		cleanExclude: []string{"published_at", "scraped_at"},
	},
	"bgg/" + schema.RatingItem: {
		keyFields: []merge.KeyField{
			{Field: "bgg_user_name", CaseFold: true},
			{Field: "bgg_id"},
		},
		latestFields: []string{"scraped_at"},
		cleanExclude: []string{"published_at", "scraped_at"},
	},
	"bgg_hotness/" + schema.GameItem: {
		keyFields: []merge.KeyField{
			{Field: "published_at"},
			{Field: "bgg_id"},
		},
		latestFields:    []string{"scraped_at"},
		cleanSortFields: []string{"published_at", "rank"},
		cleanInclude: []string{
			"published_at", "rank", "add_rank", "bgg_id", "name", "year", "image_url",
		},
	},
	"dbpedia/" + schema.GameItem: {
		keyFields:    []merge.KeyField{{Field: "dbpedia_id"}},
		latestFields: []string{"scraped_at"},
		cleanExclude: defaultCleanExclude,
	},
	"luding/" + schema.GameItem: {
		keyFields:    []merge.KeyField{{Field: "luding_id"}},
		latestFields: []string{"scraped_at"},
		cleanExclude: defaultCleanExclude,
	},
	"spielen/" + schema.GameItem: {
		keyFields:    []merge.KeyField{{Field: "spielen_id"}},
		latestFields: []string{"scraped_at"},
		cleanExclude: defaultCleanExclude,
	},
	"wikidata/" + schema.GameItem: {
		keyFields:    []merge.KeyField{{Field: "wikidata_id"}},
		latestFields: []string{"scraped_at"},
		cleanExclude: defaultCleanExclude,
	},
}

// Options carry the external configuration surface of one job: paths,
// cleaning and the recency floor in days before now.
type Options struct {
	FeedsDir string
	DataDir  string

	InPaths []string
	OutPath string

	Clean         bool
	LatestMinDays float64

	// Now anchors the recency floor and default output names; the zero
	// value means time.Now.
	Now time.Time
}

// Config builds the merge configuration for a site and item kind. Unknown
// selectors are configuration errors.
func Config(site, item string, opts Options) (*merge.Config, error) {
	e, ok := table[site+"/"+item]
	if !ok {
		if item != schema.GameItem {
			return nil, fmt.Errorf("unknown item type for site <%s>: %s", site, item)
		}
		return nil, fmt.Errorf("unknown site: %s", site)
	}

	s, err := schema.ForItem(item)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	cfg := &merge.Config{
		Schema:       s,
		KeyFields:    e.keyFields,
		LatestFields: e.latestFields,
	}

	cfg.InPaths = opts.InPaths
	if len(cfg.InPaths) == 0 {
		cfg.InPaths = []string{filepath.Join(opts.FeedsDir, site, item)}
	}

	if opts.LatestMinDays > 0 {
		cfg.LatestMin = now.Add(-time.Duration(opts.LatestMinDays * 24 * float64(time.Hour)))
	}

	cfg.OutPath = opts.OutPath
	if opts.Clean {
		if cfg.OutPath == "" {
			cfg.OutPath = filepath.Join(opts.DataDir, "scraped", fmt.Sprintf("%s_%s.jl", site, item))
		}
		cfg.SortFields = e.cleanSortFields
		if cfg.SortFields == nil {
			cfg.SortFields = keyFieldNames(e.keyFields)
		}
		cfg.FieldsInclude = e.cleanInclude
		if cfg.FieldsInclude == nil {
			cfg.FieldsExclude = e.cleanExclude
		}
	} else if cfg.OutPath == "" {
		name := fmt.Sprintf("%s-merged.jl", now.Format("2006-01-02T15-04-05"))
		cfg.OutPath = filepath.Join(opts.FeedsDir, site, item, name)
	}

	return cfg, nil
}

// AllConfigs builds the configurations of a full batch covering every site;
// bgg expands to its three item kinds.
func AllConfigs(opts Options) ([]*merge.Config, error) {
	var configs []*merge.Config
	for _, site := range Sites {
		items := []string{schema.GameItem}
		if site == "bgg" {
			items = []string{schema.GameItem, schema.UserItem, schema.RatingItem}
		}
		for _, item := range items {
			cfg, err := Config(site, item, opts)
			if err != nil {
				return nil, err
			}
			configs = append(configs, cfg)
		}
	}
	return configs, nil
}

func keyFieldNames(keys []merge.KeyField) []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.Field
	}
	return names
}
