// Package i18n resolves message keys against embedded YAML catalogs, falling
// back to an inline literal when a key is not translated.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultLocale = "en"

//go:embed catalog/*.yaml
var catalogFS embed.FS

// Catalog holds flattened "section.key" messages per locale.
type Catalog struct {
	messages map[string]map[string]string
}

// Load reads the embedded catalogs.
func Load() (*Catalog, error) {
	return LoadFS(catalogFS, "catalog")
}

// LoadFS reads every <locale>.yaml file in dir.
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading catalog dir: %w", err)
	}
	c := &Catalog{messages: make(map[string]map[string]string)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		c.messages[strings.TrimSuffix(e.Name(), ".yaml")] = flat
	}
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch typed := v.(type) {
		case map[string]any:
			flatten(key, typed, out)
		case string:
			out[key] = typed
		default:
			out[key] = fmt.Sprint(typed)
		}
	}
}

// T translates key for locale. Missing locales fall back to the default
// locale, missing keys to fallback. Params replace {name} placeholders.
func (c *Catalog) T(locale, key string, params map[string]any, fallback string) string {
	msg := ""
	if c != nil {
		if m, ok := c.messages[locale][key]; ok {
			msg = m
		} else if m, ok := c.messages[DefaultLocale][key]; ok {
			msg = m
		}
	}
	if msg == "" {
		msg = fallback
	}
	return Format(msg, params)
}

// Has reports whether locale has a catalog.
func (c *Catalog) Has(locale string) bool {
	if c == nil {
		return false
	}
	_, ok := c.messages[locale]
	return ok
}

// Format substitutes {name} placeholders.
func Format(msg string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}
