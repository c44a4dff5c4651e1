package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML keys that ShallowMergeYAML replaces.
const (
	keyLogging = "logging"
	keyRetry   = "retry"
	keyList    = "list"
	keySearch  = "search"
	keyCache   = "cache"
	keySource  = "source"
	keyMetrics = "metrics"
)

// ShallowMergeYAML loads a YAML file and replaces each top-level section of
// target that the file names. Sections the file omits are left unchanged,
// and a named section is replaced as a whole, not field by field. Unknown
// keys are ignored.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("%w: parsing overlay YAML from %s: %w", ErrInvalidConfig, overlayPath, err)
	}

	for key, node := range overlay {
		if err = mergeSection(target, key, &node); err != nil {
			return fmt.Errorf("%w: applying overlay section %q: %w", ErrInvalidConfig, key, err)
		}
	}
	return nil
}

// mergeSection decodes node into a zero value of the section type so the
// replacement is complete.
func mergeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyLogging:
		return replace(node, &target.Logging)
	case keyRetry:
		return replace(node, &target.Retry)
	case keyList:
		return replace(node, &target.List)
	case keySearch:
		return replace(node, &target.Search)
	case keyCache:
		return replace(node, &target.Cache)
	case keySource:
		return replace(node, &target.Source)
	case keyMetrics:
		return replace(node, &target.Metrics)
	default:
		return nil
	}
}

func replace[T any](node *yaml.Node, dst *T) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*dst = v
	return nil
}
