package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/careguide/careguide/pkg/types"
	"github.com/careguide/careguide/server/internal/config"
)

//go:embed data/sample-guidelines.json
var builtinDataset []byte

// BuiltinName is the name reported for the dataset compiled into the binary.
const BuiltinName = "builtin:sample-guidelines.json"

// Builtin returns the dataset compiled into the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtinDataset, "sample-guidelines.json")
}

// Load resolves cfg.Path and loads the dataset it names: the builtin dataset
// when empty, an S3 object for s3:// URLs, a local file otherwise.
func Load(ctx context.Context, cfg config.DatasetConfig) (*Catalog, error) {
	switch {
	case cfg.Path == "":
		return Builtin()
	case strings.HasPrefix(cfg.Path, "s3://"):
		bucket, key, err := config.SplitS3URL(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		getter, err := newObjectGetter(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("catalog: s3 client: %w", err)
		}
		return LoadS3(ctx, getter, bucket, key)
	default:
		return LoadFile(cfg.Path)
	}
}

// LoadFile reads a .json, .yaml or .yml dataset from disk.
func LoadFile(p string) (*Catalog, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", p, err)
	}
	return Parse(data, p)
}

// Parse decodes a dataset, choosing JSON or YAML from the extension of name.
func Parse(data []byte, name string) (*Catalog, error) {
	var entries []types.Guideline
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("catalog: parse yaml %q: %w", name, err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("catalog: parse json %q: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("catalog: %q: unsupported dataset format (want .json, .yaml or .yml)", name)
	}
	return New(entries)
}
