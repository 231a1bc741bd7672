// Package siteconfig maps site identities to field-selector overrides.
package siteconfig

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Override holds the site-specific selector expressions for each field.
// Absent fields fall through to heuristic resolution downstream.
type Override struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Price       string `yaml:"price" json:"price"`
	Currency    string `yaml:"currency" json:"currency"`
	Image       string `yaml:"image" json:"image"`
	Identifier  string `yaml:"identifier" json:"identifier"`
}

// Empty reports whether no selector is defined.
func (o Override) Empty() bool {
	return o == Override{}
}

type fileSchema struct {
	Sites map[string]Override `yaml:"sites"`
}

// Resolver answers which override applies to a target URL. Keys are matched
// as substrings of the target in sorted key order; the first match wins.
// The table can be replaced at runtime, so reads take the lock.
type Resolver struct {
	mu    sync.RWMutex
	keys  []string
	table map[string]Override
}

// NewResolver builds a resolver over an override table.
func NewResolver(table map[string]Override) *Resolver {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Resolver{keys: keys, table: table}
}

// Load reads the override table from a YAML file. A missing or unparseable
// file degrades to an empty table rather than failing the run.
func Load(path string, logger *slog.Logger) *Resolver {
	raw, err := os.ReadFile(path)
	if err != nil {
		if logger != nil {
			logger.Warn("site overrides unavailable, using heuristics only", "path", path, "error", err)
		}
		return NewResolver(nil)
	}

	var file fileSchema
	if err := yaml.Unmarshal(raw, &file); err != nil {
		if logger != nil {
			logger.Warn("site overrides unparseable, using heuristics only", "path", path, "error", err)
		}
		return NewResolver(nil)
	}

	return NewResolver(file.Sites)
}

// Resolve returns the override for the first site key contained in the
// target URL, or an empty override when none match.
func (r *Resolver) Resolve(target string) Override {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, key := range r.keys {
		if strings.Contains(target, key) {
			return r.table[key]
		}
	}
	return Override{}
}

// Len returns the number of configured sites.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// Table returns a copy of the override table.
func (r *Resolver) Table() map[string]Override {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Override, len(r.table))
	for k, v := range r.table {
		out[k] = v
	}
	return out
}

// Replace swaps in a new override table. Future Resolve calls see the new
// table; in-flight extractions keep the override they already resolved.
func (r *Resolver) Replace(table map[string]Override) {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = keys
	r.table = table
}

// Save writes the override table back to a YAML file.
func Save(path string, table map[string]Override) error {
	raw, err := yaml.Marshal(fileSchema{Sites: table})
	if err != nil {
		return fmt.Errorf("marshal site overrides: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write site overrides: %w", err)
	}
	return nil
}
