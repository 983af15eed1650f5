// Package universe loads the catalogue of votable items.
package universe

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/okian/nameswap/internal/domain/model"
)

//go:embed names.yaml
var defaultCatalogue []byte

// ErrEmptyCatalogue is returned when a catalogue yields no items.
var ErrEmptyCatalogue = errors.New("catalogue has no items")

// Entry is one catalogue line before it becomes an Item.
type Entry struct {
	Label    string
	Category model.Category
}

// catalogue mirrors the YAML layout: one list of labels per category.
type catalogue struct {
	Boy  []string `koanf:"boy"`
	Girl []string `koanf:"girl"`
}

func (c catalogue) entries() []Entry {
	out := make([]Entry, 0, len(c.Boy)+len(c.Girl))
	for _, l := range c.Boy {
		out = append(out, Entry{Label: l, Category: model.CategoryBoy})
	}
	for _, l := range c.Girl {
		out = append(out, Entry{Label: l, Category: model.CategoryGirl})
	}
	return out
}

// Default returns the embedded catalogue.
func Default() ([]Entry, error) {
	return load(rawbytes.Provider(defaultCatalogue))
}

// Parse reads a catalogue from a YAML document.
func Parse(doc []byte) ([]Entry, error) {
	return load(rawbytes.Provider(doc))
}

// LoadFile reads a catalogue from a YAML file.
func LoadFile(path string) ([]Entry, error) {
	entries, err := load(file.Provider(path))
	if err != nil {
		return nil, fmt.Errorf("load catalogue %s: %w", path, err)
	}
	return entries, nil
}

func load(p koanf.Provider) ([]Entry, error) {
	k := koanf.New(".")
	if err := k.Load(p, yaml.Parser()); err != nil {
		return nil, err
	}
	var c catalogue
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	return c.entries(), nil
}

// Build turns entries into items rated at baseline, in catalogue order.
// Blank labels and repeated ids are dropped.
func Build(entries []Entry, baseline float64) ([]model.Item, error) {
	items := make([]model.Item, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.Category.Valid() {
			return nil, fmt.Errorf("%w: %q", model.ErrUnknownCategory, e.Category)
		}
		label := strings.TrimSpace(e.Label)
		if label == "" {
			continue
		}
		id := model.ItemID(e.Category, label)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		items = append(items, model.Item{ID: id, Label: label, Category: e.Category, Rating: baseline})
	}
	if len(items) == 0 {
		return nil, ErrEmptyCatalogue
	}
	return items, nil
}
