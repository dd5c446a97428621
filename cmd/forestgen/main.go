package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"forestgen/internal/config"
	"forestgen/internal/fetch"
	"forestgen/internal/forest"
	"forestgen/internal/preview"
	"forestgen/internal/raster"
	"forestgen/internal/scene"
	"forestgen/internal/source"
	"forestgen/internal/store"
)

func main() {
	var (
		configPath string
		logLevel   string
		seed       string
		targets    string
		previewDir string
		scale      int
	)
	flag.StringVar(&configPath, "config", "forestgen.yml", "forest generation configuration file")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&seed, "seed", "", "random seed, overrides generation.seed")
	flag.StringVar(&targets, "targets", "", "comma separated region ids to generate, overrides generation.target_ids")
	flag.StringVar(&previewDir, "preview", "", "directory for a preview image, overrides output.preview_dir")
	flag.IntVar(&scale, "preview-scale", 2, "preview pixels per raster cell")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", logLevel)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := config.WriteDefault(configPath); err != nil {
				fatal(logger, "write default config", err)
			}
			logger.Info("no configuration found, default configuration written; edit its inputs and run again", "path", configPath)
			return
		}
		fatal(logger, "load config", err)
	}
	if err := applyFlags(cfg, seed, targets, previewDir); err != nil {
		fatal(logger, "parse flags", err)
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	if err := run(ctx, cfg, scale, logger); err != nil {
		fatal(logger, "generate forests", err)
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

func applyFlags(cfg *config.Config, seed, targets, previewDir string) error {
	if seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		cfg.Generation.Seed = &v
	}
	if targets != "" {
		cfg.Generation.TargetIDs = cfg.Generation.TargetIDs[:0]
		for _, field := range strings.Split(targets, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(field), 10, 32)
			if err != nil {
				return fmt.Errorf("targets: %w", err)
			}
			cfg.Generation.TargetIDs = append(cfg.Generation.TargetIDs, int32(id))
		}
	}
	if previewDir != "" {
		cfg.Output.PreviewDir = previewDir
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, previewScale int, log *slog.Logger) error {
	fs, err := store.NewLocal()
	if err != nil {
		return err
	}
	inputs := fetch.NewResolver(cfg.Inputs.CacheDir, log)

	scenePath, err := inputs.Resolve(ctx, cfg.Inputs.Scene)
	if err != nil {
		return err
	}
	doc, err := scene.Load(fs, fs.Path(scenePath))
	if err != nil {
		return err
	}
	pixelScale, err := doc.PixelScale()
	if err != nil {
		return err
	}
	trees, err := doc.Catalog(cfg.Inputs.TreeSource, cfg.Naming, log)
	if err != nil {
		return err
	}
	log.Info("species catalog", "source", cfg.Inputs.TreeSource, "species", trees.Catalog.Names())

	demSrc := cfg.Inputs.HeightMap
	if demSrc == "" {
		ref, err := doc.HeightMapRef()
		if err != nil {
			return err
		}
		demSrc = fetch.Join(cfg.Inputs.Scene, ref)
	}
	demPath, err := inputs.Resolve(ctx, demSrc)
	if err != nil {
		return err
	}
	dem := raster.NewDEM(fs, fs.Path(demPath), log)

	rasterPath, err := inputs.Resolve(ctx, cfg.Inputs.Raster)
	if err != nil {
		return err
	}
	regionRaster, err := raster.ReadRegions(fs, fs.Path(rasterPath))
	if err != nil {
		return err
	}

	regions, err := readRegions(ctx, cfg, fs, inputs, trees, log)
	if err != nil {
		return err
	}

	gen := forest.NewGenerator(cfg.Generation, log)
	result, err := gen.Generate(ctx, forest.Inputs{
		Raster:     regionRaster,
		Heights:    dem,
		PixelScale: pixelScale,
		Catalog:    trees.Catalog,
		Regions:    regions,
	})
	if err != nil {
		return err
	}

	next, err := doc.InsertForests(result, trees.Templates, cfg.Naming)
	if err != nil {
		return err
	}
	out := store.New(fs, cfg.Output.Overwrite)
	if err := doc.Save(out, fs.Path(cfg.Output.Scene)); err != nil {
		return err
	}
	log.Info("scene written", "path", cfg.Output.Scene, "forests", len(result.Forests), "trees", result.Total(), "nextNodeId", next)

	if cfg.Output.PreviewDir == "" {
		return nil
	}
	heights, err := dem.HeightGrid()
	if err != nil {
		log.Warn("preview without terrain shading", "dem", dem.Path(), "error", err)
	}
	img, err := preview.Render(regionRaster, heights, result, trees.Catalog.Names(), previewScale)
	if err != nil {
		return err
	}
	if err := preview.Save(out, fs.Path(cfg.Output.PreviewDir), img); err != nil {
		return err
	}
	log.Info("preview written", "dir", cfg.Output.PreviewDir)
	return nil
}

func readRegions(ctx context.Context, cfg *config.Config, fs *store.Local, inputs *fetch.Resolver, trees *scene.TreeCatalog, log *slog.Logger) ([]forest.Region, error) {
	format, err := source.Format(cfg.Inputs.RegionsFormat).Resolve(cfg.Inputs.Regions)
	if err != nil {
		return nil, err
	}
	var path string
	if format == source.FormatShapefile {
		path, err = inputs.ResolveWith(ctx, fetch.WithExt(cfg.Inputs.Regions, ".shp"), ".dbf", ".shx")
	} else {
		path, err = inputs.Resolve(ctx, cfg.Inputs.Regions)
	}
	if err != nil {
		return nil, err
	}

	records, err := source.Read(fs, fs.Path(path), format, trees.Weights.Columns(trees.Catalog.Names()))
	if err != nil {
		return nil, err
	}
	log.Info("region records read", "path", cfg.Inputs.Regions, "format", format, "records", len(records))
	return source.BuildRegions(records, trees.Weights, log)
}

// signalContext is cancelled on SIGINT or SIGTERM. A second signal falls
// through to the default handler and kills the process.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
