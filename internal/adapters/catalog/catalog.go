// Package catalog loads and validates the goal catalog a board is drawn from.
//
// Catalogs use the bingo settings layout: rules, goals, difficulty
// thresholds and tag metadata. JSON files are decoded directly; YAML files
// go through koanf so they share the config loader's providers.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/bingo/internal/domain/model"
)

// keyDelim separates koanf key paths. Tag names may contain dots.
const keyDelim = "::"

//go:embed data/default.json
var defaultData []byte

var validate = validator.New(validator.WithRequiredStructEnabled())

// settings mirrors the on-disk layout.
type settings struct {
	Rules      []string                 `json:"rules" koanf:"rules"`
	Goals      []model.Goal             `json:"goals" koanf:"goals"`
	Difficulty model.Thresholds         `json:"difficulty" koanf:"difficulty"`
	Tags       map[string]model.TagMeta `json:"tags" koanf:"tags"`
}

func (s settings) catalog() *model.Catalog {
	tags := s.Tags
	if tags == nil {
		tags = make(map[string]model.TagMeta)
	}
	return &model.Catalog{
		Rules:      s.Rules,
		Goals:      s.Goals,
		Tags:       tags,
		Thresholds: s.Difficulty,
	}
}

// Default returns the embedded catalog.
func Default(_ context.Context) (*model.Catalog, error) {
	c, err := decodeJSON(defaultData)
	if err != nil {
		return nil, fmt.Errorf("%w: embedded catalog: %w", ErrLoadCatalog, err)
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the catalog at path, or the embedded catalog when path is empty.
func Load(ctx context.Context, path string) (*model.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(ctx)
	}
	return LoadFile(ctx, path)
}

// LoadFile reads a .json, .yaml or .yml catalog and validates it.
func LoadFile(_ context.Context, path string) (*model.Catalog, error) {
	var (
		c   *model.Catalog
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			c, err = decodeJSON(data)
		}
	case ".yaml", ".yml":
		c, err = decodeYAML(path)
	default:
		return nil, fmt.Errorf("%w: unsupported catalog extension %q", ErrLoadCatalog, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, path, err)
	}
	if err := Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeJSON(data []byte) (*model.Catalog, error) {
	var s settings
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	return s.catalog(), nil
}

func decodeYAML(path string) (*model.Catalog, error) {
	k := koanf.NewWithConf(koanf.Conf{Delim: keyDelim})
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, err
	}
	var s settings
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	return s.catalog(), nil
}

// Validate checks goal fields, name uniqueness, thresholds and tag icons.
func Validate(c *model.Catalog) error {
	if c == nil || len(c.Goals) == 0 {
		return fmt.Errorf("%w: no goals", ErrInvalidCatalog)
	}
	seen := make(map[string]struct{}, len(c.Goals))
	for i, g := range c.Goals {
		if err := validate.Struct(g); err != nil {
			return fmt.Errorf("%w: goal %d (%q): %w", ErrInvalidCatalog, i, g.Name, err)
		}
		if _, dup := seen[g.Name]; dup {
			return fmt.Errorf("%w: duplicate goal %q", ErrInvalidCatalog, g.Name)
		}
		seen[g.Name] = struct{}{}
	}
	if !c.Thresholds.Monotonic() {
		t := c.Thresholds
		return fmt.Errorf("%w: difficulty thresholds not monotonic (easymax=%d normmin=%d normmax=%d hardmin=%d)",
			ErrInvalidCatalog, t.EasyMax, t.NormMin, t.NormMax, t.HardMin)
	}
	for name, meta := range c.Tags {
		if meta.Icon == "" {
			continue
		}
		if err := validate.Var(meta.Icon, "url"); err != nil {
			return fmt.Errorf("%w: tag %q icon %q is not a URL", ErrInvalidCatalog, name, meta.Icon)
		}
	}
	return nil
}

// UndeclaredTags lists tags used by goals but missing from the tag table.
// Such tags fall back to model.DefaultTagMeta.
func UndeclaredTags(c *model.Catalog) []string {
	missing := make(map[string]struct{})
	for _, g := range c.Goals {
		for _, tag := range g.Tags {
			if _, ok := c.Tags[tag]; !ok {
				missing[tag] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(missing))
	for tag := range missing {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Summary counts goals per bucket. A boundary goal counts in every bucket it
// belongs to.
func Summary(c *model.Catalog) map[model.Bucket]int {
	out := make(map[model.Bucket]int, len(model.Buckets))
	for _, g := range c.Goals {
		for _, b := range c.Thresholds.BucketsFor(g.Difficulty) {
			out[b]++
		}
	}
	return out
}
