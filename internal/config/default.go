package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Default returns a configuration with the generation parameters the
// generator was tuned with. Input paths are left for the caller.
func Default() Config {
	return Config{
		Inputs: InputConfig{
			RegionsFormat: "auto",
			TreeSource:    "baseTrees",
			CacheDir:      ".forestgen-cache",
		},
		Generation: DefaultGeneration(),
		Naming: NamingConfig{
			SpeciesPrefix:   "base",
			WeightPrefix:    "wgt",
			StageInfix:      "_stage",
			OutputContainer: "autoForests",
			ForestPrefix:    "forest",
		},
		Output: OutputConfig{
			Overwrite: true,
		},
	}
}

// DefaultGeneration returns the default generation parameters. 0.6 for the
// global density factor looks realistic but plays badly.
func DefaultGeneration() GenerationConfig {
	return GenerationConfig{
		GlobalDensityFactor: 0.3,
		KeepMin:             45,
		KeepMax:             75,
		PruneDistance:       2,
		PruneThreshold:      1,
		HeightSampling:      "lowest-pair",
		HeightRadius:        1,
		Jitter:              1.25,
		ZOffset:             -0.05,
		ThinChunkSize:       100,
		NodeIDStart:         100000,
	}
}

// WriteDefault writes the default configuration, with placeholder input
// paths, to path. Existing files are left alone.
func WriteDefault(path string) error {
	cfg := Default()
	cfg.Inputs.Scene = "maps/map.i3d"
	cfg.Inputs.Raster = "maps/data/forests.png"
	cfg.Inputs.Regions = "maps/xml/forests.xml"

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create default config: %w", err)
	}

	fmt.Fprintln(f, "# forestgen configuration. Point inputs at your map before running.")
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	err = multierr.Combine(enc.Encode(&cfg), enc.Close(), f.Close())
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
