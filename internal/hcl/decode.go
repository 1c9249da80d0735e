package hcl

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/juelinl/pebble/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// decodeExperiment merges the defaults attributes under the experiment's own
// and binds the result onto an ExperimentConfig. The experiment always wins
// over defaults.
func decodeExperiment(block *experimentBlock, defaults map[string]hcl.Expression) (*model.ExperimentConfig, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid experiment body: %w", diags)
	}

	merged := make(map[string]hcl.Expression, len(defaults)+len(attrs))
	for name, expr := range defaults {
		merged[name] = expr
	}
	for name, attr := range attrs {
		merged[name] = attr.Expr
	}

	cfg := &model.ExperimentConfig{Name: block.Name, Eval: true}

	for name, expr := range merged {
		target, ok := fieldTarget(cfg, name)
		if !ok {
			return nil, fmt.Errorf("unsupported attribute %q at %s", name, expr.Range().String())
		}
		val, valDiags := expr.Value(nil)
		if valDiags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate attribute %q: %w", name, valDiags)
		}
		if err := decodeValue(val, target); err != nil {
			return nil, fmt.Errorf("failed to decode attribute %q: %w", name, err)
		}
	}

	cfg.Dataset = strings.TrimSpace(cfg.Dataset)

	for _, required := range []struct {
		name string
		ok   bool
	}{
		{"dataset", cfg.Dataset != ""},
		{"model", cfg.Model != ""},
		{"fanouts", len(cfg.Fanouts) > 0},
	} {
		if !required.ok {
			return nil, fmt.Errorf("missing required attribute %q", required.name)
		}
	}

	cfg.ApplyHyperparamDefaults()
	return cfg, nil
}

// fieldTarget maps a sweep-file attribute name to a pointer into the config.
func fieldTarget(cfg *model.ExperimentConfig, name string) (any, bool) {
	switch name {
	case "dataset":
		return &cfg.Dataset, true
	case "model":
		return (*string)(&cfg.Model), true
	case "fanouts":
		return &cfg.Fanouts, true
	case "hidden_size":
		return &cfg.HiddenSize, true
	case "num_epoch":
		return &cfg.NumEpoch, true
	case "data_dir":
		return &cfg.DataDir, true
	case "num_host":
		return &cfg.NumHost, true
	case "num_gpu":
		return &cfg.GPUPerHost, true
	case "log_file":
		return &cfg.LogFile, true
	case "batch_size":
		return &cfg.BatchSize, true
	case "lr":
		return &cfg.LR, true
	case "weight_decay":
		return &cfg.WeightDecay, true
	case "dropout":
		return &cfg.Dropout, true
	case "num_head":
		return &cfg.NumHead, true
	case "sample_mode":
		return &cfg.SampleMode, true
	case "eval":
		return &cfg.Eval, true
	}
	return nil, false
}

// decodeValue converts a cty.Value into the Go target, applying implicit
// conversions (e.g. a literal 5 into a float64 field) first.
func decodeValue(val cty.Value, target any) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr {
		return fmt.Errorf("target for decoding must be a pointer, got %T", target)
	}

	impliedType, err := gocty.ImpliedType(ptr.Elem().Interface())
	if err != nil {
		return gocty.FromCtyValue(val, target)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w",
			val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}

	return gocty.FromCtyValue(convertedVal, target)
}
