// Package yaml is the YAML implementation of the config.Loader interface.
// It accepts the same sweep shape as the HCL loader: a defaults mapping plus
// an ordered experiments list.
package yaml

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/juelinl/pebble/internal/ctxlog"
	"github.com/juelinl/pebble/internal/fsutil"
	"github.com/juelinl/pebble/internal/model"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML sweep loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is the top-level structure of a YAML sweep file.
type fileRoot struct {
	Defaults    *entryFields  `yaml:"defaults"`
	Experiments []*entryBlock `yaml:"experiments"`
}

type entryBlock struct {
	Name        string `yaml:"name"`
	entryFields `yaml:",inline"`
}

// entryFields uses pointers throughout so "absent" and "zero" stay
// distinguishable when layering an experiment over the defaults.
type entryFields struct {
	Dataset     *string  `yaml:"dataset"`
	Model       *string  `yaml:"model"`
	Fanouts     []int    `yaml:"fanouts"`
	HiddenSize  *int     `yaml:"hidden_size"`
	NumEpoch    *int     `yaml:"num_epoch"`
	DataDir     *string  `yaml:"data_dir"`
	NumHost     *int     `yaml:"num_host"`
	NumGPU      *int     `yaml:"num_gpu"`
	LogFile     *string  `yaml:"log_file"`
	BatchSize   *int     `yaml:"batch_size"`
	LR          *float64 `yaml:"lr"`
	WeightDecay *float64 `yaml:"weight_decay"`
	Dropout     *float64 `yaml:"dropout"`
	NumHead     *int     `yaml:"num_head"`
	SampleMode  *string  `yaml:"sample_mode"`
	Eval        *bool    `yaml:"eval"`

	Env *envFields `yaml:"env"`
}

type envFields struct {
	CudaAllocConf string `yaml:"cuda_alloc_conf"`
	DistDebug     string `yaml:"dist_debug"`
}

// Load parses every sweep file under path and returns the ordered sweep
// model. Entry order follows file order (lexical) and list order within
// each file.
func (l *Loader) Load(ctx context.Context, path string) (*model.Sweep, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".yaml", ".yml")
	if err != nil {
		return nil, fmt.Errorf("failed to find sweep files in %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .yaml sweep files found in %s", path)
	}

	sweep := model.NewSweep()
	var defaults *entryFields
	type pendingEntry struct {
		block *entryBlock
		file  string
	}
	var pending []pendingEntry

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read sweep file %s: %w", file, err)
		}

		var root fileRoot
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&root); err != nil {
			return nil, fmt.Errorf("failed to decode YAML file %s: %w", file, err)
		}

		if root.Defaults != nil {
			if defaults != nil {
				return nil, fmt.Errorf("duplicate defaults mapping in %s: a sweep may declare at most one", file)
			}
			defaults = root.Defaults
		}
		for _, e := range root.Experiments {
			pending = append(pending, pendingEntry{block: e, file: file})
		}
	}

	if defaults != nil && defaults.Env != nil {
		sweep.Env = model.LaunchEnv{
			CudaAllocConf: defaults.Env.CudaAllocConf,
			DistDebug:     defaults.Env.DistDebug,
		}
	}

	for _, p := range pending {
		cfg, err := buildEntry(p.block, defaults)
		if err != nil {
			return nil, fmt.Errorf("error in experiment %q (%s): %w", p.block.Name, p.file, err)
		}
		sweep.Entries = append(sweep.Entries, cfg)
	}

	logger.Info("Sweep loaded.", "entries", sweep.Len(), "files", len(files))
	return sweep, nil
}

// buildEntry layers an experiment over the defaults and binds the result.
func buildEntry(block *entryBlock, defaults *entryFields) (*model.ExperimentConfig, error) {
	if block.Name == "" {
		return nil, fmt.Errorf("every experiment needs a name")
	}
	if block.Env != nil {
		return nil, fmt.Errorf("env settings are sweep-level and belong in the defaults mapping")
	}

	merged := entryFields{}
	if defaults != nil {
		merged = *defaults
	}
	overlay(&merged, &block.entryFields)

	cfg := &model.ExperimentConfig{Name: block.Name, Eval: true}
	if merged.Dataset != nil {
		cfg.Dataset = strings.TrimSpace(*merged.Dataset)
	}
	if merged.Model != nil {
		cfg.Model = model.ModelFamily(*merged.Model)
	}
	cfg.Fanouts = merged.Fanouts
	assignInt(&cfg.HiddenSize, merged.HiddenSize)
	assignInt(&cfg.NumEpoch, merged.NumEpoch)
	if merged.DataDir != nil {
		cfg.DataDir = *merged.DataDir
	}
	assignInt(&cfg.NumHost, merged.NumHost)
	assignInt(&cfg.GPUPerHost, merged.NumGPU)
	if merged.LogFile != nil {
		cfg.LogFile = *merged.LogFile
	}
	assignInt(&cfg.BatchSize, merged.BatchSize)
	assignFloat(&cfg.LR, merged.LR)
	assignFloat(&cfg.WeightDecay, merged.WeightDecay)
	assignFloat(&cfg.Dropout, merged.Dropout)
	assignInt(&cfg.NumHead, merged.NumHead)
	if merged.SampleMode != nil {
		cfg.SampleMode = *merged.SampleMode
	}
	if merged.Eval != nil {
		cfg.Eval = *merged.Eval
	}

	switch {
	case cfg.Dataset == "":
		return nil, fmt.Errorf("missing required attribute %q", "dataset")
	case cfg.Model == "":
		return nil, fmt.Errorf("missing required attribute %q", "model")
	case len(cfg.Fanouts) == 0:
		return nil, fmt.Errorf("missing required attribute %q", "fanouts")
	}

	cfg.ApplyHyperparamDefaults()
	return cfg, nil
}

// overlay copies every set field of src over dst.
func overlay(dst, src *entryFields) {
	if src.Dataset != nil {
		dst.Dataset = src.Dataset
	}
	if src.Model != nil {
		dst.Model = src.Model
	}
	if src.Fanouts != nil {
		dst.Fanouts = src.Fanouts
	}
	if src.HiddenSize != nil {
		dst.HiddenSize = src.HiddenSize
	}
	if src.NumEpoch != nil {
		dst.NumEpoch = src.NumEpoch
	}
	if src.DataDir != nil {
		dst.DataDir = src.DataDir
	}
	if src.NumHost != nil {
		dst.NumHost = src.NumHost
	}
	if src.NumGPU != nil {
		dst.NumGPU = src.NumGPU
	}
	if src.LogFile != nil {
		dst.LogFile = src.LogFile
	}
	if src.BatchSize != nil {
		dst.BatchSize = src.BatchSize
	}
	if src.LR != nil {
		dst.LR = src.LR
	}
	if src.WeightDecay != nil {
		dst.WeightDecay = src.WeightDecay
	}
	if src.Dropout != nil {
		dst.Dropout = src.Dropout
	}
	if src.NumHead != nil {
		dst.NumHead = src.NumHead
	}
	if src.SampleMode != nil {
		dst.SampleMode = src.SampleMode
	}
	if src.Eval != nil {
		dst.Eval = src.Eval
	}
}

func assignInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func assignFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
