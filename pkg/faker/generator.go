// Package faker generates fake scraped feed files for exercising the
// merger: many records per entity, skewed scrape timestamps, occasional
// empty and malformed values.
package faker

import (
	"bufio"
	"fmt"
	"math/rand" // Using weak random for test data generation only
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/recommend-games/board-game-merger/pkg/schema"
)

var json = jsoniter.ConfigFastest

var gameNames = []string{
	"Catan", "Carcassonne", "Pandemic", "Azul", "Wingspan",
	"Terraforming Mars", "Gloomhaven", "Root", "Scythe", "Brass",
}

var userNames = []string{
	"meeplemags", "dicegoblin", "cubepusher", "tableflip", "cardshark",
	"hexcrawler", "victorypoint", "workerbee", "tokenhoard", "draftking",
}

// Generator writes fake feed files for one site.
type Generator struct {
	rng  *rand.Rand
	site string
	now  time.Time
}

func New(site string, seed int64) *Generator {
	return &Generator{
		rng:  rand.New(rand.NewSource(seed)), //nolint:gosec // test data only
		site: site,
		now:  time.Now().UTC(),
	}
}

func (g *Generator) scrapedAt(maxAgeDays int) string {
	age := time.Duration(g.rng.Intn(maxAgeDays*24)) * time.Hour
	return g.now.Add(-age).Format(time.RFC3339)
}

// GameRecord builds one fake game record for entity id.
func (g *Generator) GameRecord(id int) map[string]any {
	name := gameNames[id%len(gameNames)]
	rec := map[string]any{
		"name":        name,
		"bgg_id":      int64(id),
		"year":        int64(1995 + g.rng.Intn(30)),
		"min_players": int64(1 + g.rng.Intn(3)),
		"max_players": int64(2 + g.rng.Intn(6)),
		"designer":    []any{fmt.Sprintf("Designer %d", id%7)},
		"avg_rating":  1 + g.rng.Float64()*9,
		"num_votes":   int64(g.rng.Intn(50_000)),
		"cooperative": g.rng.Intn(4) == 0,
		"scraped_at":  g.scrapedAt(90),
	}
	if g.rng.Intn(3) == 0 {
		rec["description"] = "" // empty value for the cleaner to strip
	}
	return rec
}

// UserRecord builds one fake user record; user names vary in casing so the
// case-folded key groups them.
func (g *Generator) UserRecord(id int) map[string]any {
	name := userNames[id%len(userNames)]
	if g.rng.Intn(2) == 0 {
		name = fmt.Sprintf("%c%s", name[0]-'a'+'A', name[1:])
	}
	return map[string]any{
		"bgg_user_name": name,
		"country":       []string{"Germany", "USA", "France", "Japan"}[g.rng.Intn(4)],
		"registered":    int64(2005 + g.rng.Intn(20)),
		"scraped_at":    g.scrapedAt(90),
	}
}

// RatingRecord builds one fake rating record keyed by user and game.
func (g *Generator) RatingRecord(id int) map[string]any {
	return map[string]any{
		"bgg_user_name":   userNames[id%len(userNames)],
		"bgg_id":          int64(1 + (id-1)%100),
		"bgg_user_rating": float64(1 + g.rng.Intn(10)),
		"bgg_user_owned":  g.rng.Intn(2) == 0,
		"scraped_at":      g.scrapedAt(90),
	}
}

// WriteFeed writes count records (with duplicates across entity ids) of the
// given item kind into a timestamped feed file under dir.
func (g *Generator) WriteFeed(dir, item string, count, entities int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.jl", g.now.Format("2006-01-02T15-04-05")))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 0; i < count; i++ {
		// ids start at 1: zero is a falsy key the cleaner would strip
		id := 1 + g.rng.Intn(entities)
		var rec map[string]any
		switch item {
		case schema.UserItem:
			rec = g.UserRecord(id)
		case schema.RatingItem:
			rec = g.RatingRecord(id)
		default:
			rec = g.GameRecord(id)
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return "", err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return path, nil
}
