package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/recommend-games/board-game-merger/pkg/config"
	"github.com/recommend-games/board-game-merger/pkg/faker"
	"github.com/recommend-games/board-game-merger/pkg/schema"
)

type options struct {
	Site     string `short:"s" long:"site" default:"bgg" description:"Site to generate feeds for"`
	ItemType string `short:"t" long:"item-type" choice:"GameItem" choice:"UserItem" choice:"RatingItem" default:"GameItem" description:"Type of item to generate"`
	Count    int    `short:"n" long:"count" default:"1000" description:"Number of records per feed file"`
	Entities int    `short:"e" long:"entities" default:"100" description:"Number of distinct entities (duplicates fill the rest)"`
	Files    int    `short:"f" long:"files" default:"3" description:"Number of feed files to write"`
	Config   string `long:"config" description:"Path to a merger.yaml config file"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	cfg := config.Default()
	if opts.Config != "" {
		cfg = config.Load(opts.Config)
	}

	if _, err := schema.ForItem(opts.ItemType); err != nil {
		log.Fatalf("[Feedgen] %v", err)
	}

	dir := filepath.Join(cfg.Paths.Feeds, opts.Site, opts.ItemType)
	log.Printf("[Feedgen] Writing %d feed file(s) to <%s>", opts.Files, dir)

	for i := 0; i < opts.Files; i++ {
		gen := faker.New(opts.Site, time.Now().UnixNano()+int64(i))
		path, err := gen.WriteFeed(dir, opts.ItemType, opts.Count, opts.Entities)
		if err != nil {
			log.Fatalf("[Feedgen] Failed to write feed: %v", err)
		}
		log.Printf("[Feedgen] Wrote %d record(s) to <%s>", opts.Count, path)
		time.Sleep(time.Second) // feed files are named by timestamp
	}
}
