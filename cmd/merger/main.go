package main

import (
	"context"
	"errors"
	"log"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/recommend-games/board-game-merger/pkg/config"
	"github.com/recommend-games/board-game-merger/pkg/merge"
	"github.com/recommend-games/board-game-merger/pkg/registry"
	"github.com/recommend-games/board-game-merger/pkg/sink"
)

type options struct {
	ItemType      string   `short:"t" long:"item-type" choice:"GameItem" choice:"UserItem" choice:"RatingItem" default:"GameItem" description:"Type of item to merge"`
	InPaths       []string `short:"i" long:"in-paths" description:"Paths to input files or directories"`
	OutPath       string   `short:"o" long:"out-path" description:"Path to output file"`
	CleanResults  bool     `short:"c" long:"clean-results" description:"Clean results (remove empty fields, sort keys alphabetically and sort rows)"`
	LatestMinDays float64  `short:"m" long:"latest-min-days" description:"Minimum number of days for the latest column"`
	Overwrite     bool     `short:"W" long:"overwrite" description:"Overwrite output file if it exists"`
	Progress      bool     `short:"p" long:"progress" description:"Log progress during the cleaning pass"`
	Verbose       bool     `short:"v" long:"verbose" description:"Enable verbose logging"`
	ConfigPath    string   `long:"config" description:"Path to a merger.yaml config file"`

	Args struct {
		Site string `positional-arg-name:"site" description:"Site to merge data from, or 'all'"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log.SetOutput(os.Stdout)
	if !opts.Verbose {
		log.SetFlags(log.LstdFlags)
	} else {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg := config.Default()
	if opts.ConfigPath != "" {
		cfg = config.Load(opts.ConfigPath)
	}

	configs, err := buildConfigs(&opts, &cfg)
	if err != nil {
		log.Fatalf("[Merger] %v", err)
	}

	mergeOpts := merge.Options{
		Overwrite:      opts.Overwrite,
		DropEmpty:      true,
		SortKeys:       opts.CleanResults,
		Progress:       opts.Progress,
		SpillDir:       cfg.Dedup.SpillDir,
		SpillThreshold: cfg.Dedup.SpillThreshold,
	}

	failed := 0
	for _, mc := range configs {
		wrote, err := merge.MergeFiles(mc, mergeOpts)
		if err != nil {
			// one broken job must not abort its siblings
			log.Printf("[Merger] Job for <%s> failed: %v", mc.OutPath, err)
			failed++
			continue
		}
		if wrote {
			deliver(&cfg, mc.OutPath)
		}
	}

	if failed > 0 {
		log.Fatalf("[Merger] %d of %d job(s) failed", failed, len(configs))
	}
}

func buildConfigs(opts *options, cfg *config.AppConfig) ([]*merge.Config, error) {
	regOpts := registry.Options{
		FeedsDir:      cfg.Paths.Feeds,
		DataDir:       cfg.Paths.Data,
		Clean:         opts.CleanResults,
		LatestMinDays: opts.LatestMinDays,
	}

	if opts.Args.Site == "all" {
		return registry.AllConfigs(regOpts)
	}

	regOpts.InPaths = opts.InPaths
	regOpts.OutPath = opts.OutPath
	mc, err := registry.Config(opts.Args.Site, opts.ItemType, regOpts)
	if err != nil {
		return nil, err
	}
	return []*merge.Config{mc}, nil
}

// deliver pushes a freshly written output file to the configured sinks.
// Sink failures are logged, not fatal: the merged file is already on disk.
func deliver(cfg *config.AppConfig, path string) {
	ctx := context.Background()

	if cfg.Sinks.S3.Enabled {
		uploader := sink.NewS3Uploader(cfg.Sinks.S3)
		if err := uploader.Upload(ctx, path); err != nil {
			log.Printf("[Sink] S3 upload of <%s> failed: %v", path, err)
		}
	}

	if cfg.Sinks.Kafka.Enabled {
		publisher := sink.NewKafkaPublisher(cfg.Sinks.Kafka)
		if err := publisher.PublishFile(ctx, path); err != nil {
			log.Printf("[Sink] Kafka publish of <%s> failed: %v", path, err)
		}
		if err := publisher.Close(); err != nil {
			log.Printf("[Sink] Closing Kafka writer: %v", err)
		}
	}
}
