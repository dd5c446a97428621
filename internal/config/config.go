package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"forestgen/internal/fetch"
)

// Config captures everything a forest generation run needs.
type Config struct {
	Inputs     InputConfig      `yaml:"inputs"`
	Generation GenerationConfig `yaml:"generation"`
	Naming     NamingConfig     `yaml:"naming"`
	Output     OutputConfig     `yaml:"output"`
}

type InputConfig struct {
	Scene         string `yaml:"scene"`          // i3d path or remote URL
	Raster        string `yaml:"raster"`         // region id image
	Regions       string `yaml:"regions"`        // shapefile or xml metadata
	RegionsFormat string `yaml:"regions_format"` // auto, shp or xml
	HeightMap     string `yaml:"height_map"`     // optional override of the scene's DEM reference
	TreeSource    string `yaml:"tree_source"`    // name of the group holding species templates
	CacheDir      string `yaml:"cache_dir"`      // download directory for remote inputs
}

type GenerationConfig struct {
	// Seed makes a run reproducible. Unset means seeded from the clock.
	Seed                *int64  `yaml:"seed,omitempty"`
	GlobalDensityFactor float64 `yaml:"global_density_factor"`
	KeepMin             int     `yaml:"keep_min"`
	KeepMax             int     `yaml:"keep_max"`
	PruneDistance       int     `yaml:"prune_distance"`
	PruneThreshold      int     `yaml:"prune_threshold"`
	HeightSampling      string  `yaml:"height_sampling"` // lowest-pair or direct
	HeightRadius        int     `yaml:"height_radius"`
	Jitter              float64 `yaml:"jitter"`
	ZOffset             float64 `yaml:"z_offset"`
	ThinChunkSize       int     `yaml:"thin_chunk_size"`
	NodeIDStart         int     `yaml:"node_id_start"`
	TargetIDs           []int32 `yaml:"target_ids,omitempty"`
}

type NamingConfig struct {
	SpeciesPrefix   string `yaml:"species_prefix"`
	WeightPrefix    string `yaml:"weight_prefix"`
	StageInfix      string `yaml:"stage_infix"`
	OutputContainer string `yaml:"output_container"`
	ForestPrefix    string `yaml:"forest_prefix"`
}

type OutputConfig struct {
	Scene      string `yaml:"scene"` // empty overwrites the input scene
	Overwrite  bool   `yaml:"overwrite"`
	PreviewDir string `yaml:"preview_dir"`
}

// Load reads a YAML configuration file on top of the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fills derived defaults and reports every invalid field at once.
func (c *Config) Validate() error {
	var err error
	if c.Inputs.Scene == "" {
		err = multierr.Append(err, errors.New("inputs.scene must be set"))
	}
	if c.Inputs.Raster == "" {
		err = multierr.Append(err, errors.New("inputs.raster must be set"))
	}
	if c.Inputs.Regions == "" {
		err = multierr.Append(err, errors.New("inputs.regions must be set"))
	}
	switch c.Inputs.RegionsFormat {
	case "":
		c.Inputs.RegionsFormat = "auto"
	case "auto", "shp", "xml":
	default:
		err = multierr.Append(err, fmt.Errorf("inputs.regions_format must be auto, shp or xml, got %q", c.Inputs.RegionsFormat))
	}
	if c.Inputs.TreeSource == "" {
		c.Inputs.TreeSource = "baseTrees"
	}
	if c.Naming.OutputContainer == "" {
		err = multierr.Append(err, errors.New("naming.output_container must be set"))
	}
	if c.Naming.StageInfix == "" {
		err = multierr.Append(err, errors.New("naming.stage_infix must be set"))
	}
	if c.Output.Scene == "" {
		c.Output.Scene = c.Inputs.Scene
	}
	if fetch.IsRemote(c.Output.Scene) {
		err = multierr.Append(err, errors.New("output.scene must be a local path"))
	}
	return multierr.Append(err, c.Generation.Validate())
}

// Validate checks the generation parameters.
func (g *GenerationConfig) Validate() error {
	var err error
	if g.GlobalDensityFactor <= 0 {
		err = multierr.Append(err, errors.New("generation.global_density_factor must be positive"))
	}
	if g.KeepMin <= 0 || g.KeepMax <= 0 {
		err = multierr.Append(err, errors.New("generation.keep_min and keep_max must be positive"))
	}
	if g.KeepMin > g.KeepMax {
		err = multierr.Append(err, errors.New("generation.keep_min cannot exceed keep_max"))
	}
	if g.PruneDistance < 0 {
		err = multierr.Append(err, errors.New("generation.prune_distance cannot be negative"))
	}
	if g.PruneThreshold < 0 {
		err = multierr.Append(err, errors.New("generation.prune_threshold cannot be negative"))
	}
	switch g.HeightSampling {
	case "":
		g.HeightSampling = "lowest-pair"
	case "lowest-pair", "direct":
	default:
		err = multierr.Append(err, fmt.Errorf("generation.height_sampling must be lowest-pair or direct, got %q", g.HeightSampling))
	}
	if g.HeightRadius < 0 {
		err = multierr.Append(err, errors.New("generation.height_radius cannot be negative"))
	} else if g.HeightRadius == 0 && g.HeightSampling == "lowest-pair" {
		err = multierr.Append(err, errors.New("generation.height_radius must be at least 1 for lowest-pair sampling"))
	}
	if g.Jitter < 0 {
		err = multierr.Append(err, errors.New("generation.jitter cannot be negative"))
	}
	if g.ThinChunkSize <= 0 {
		err = multierr.Append(err, errors.New("generation.thin_chunk_size must be positive"))
	}
	if g.NodeIDStart < 0 {
		err = multierr.Append(err, errors.New("generation.node_id_start cannot be negative"))
	}
	return err
}
