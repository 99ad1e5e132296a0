// Package knowledge holds the hand-curated question table consulted when the
// lexical search finds nothing.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"asknehru/internal/domain"
)

//go:embed default.yaml
var defaultTable []byte

type document struct {
	Entries  []domain.QAEntry `yaml:"entries"`
	Fallback domain.QAEntry   `yaml:"fallback"`
}

// Base is an ordered, read-only keyword table. Lookup is first match wins.
type Base struct {
	entries  []domain.QAEntry
	fallback domain.QAEntry
}

// New builds a Base from entries already in memory.
func New(entries []domain.QAEntry, fallback domain.QAEntry) *Base {
	normalized := make([]domain.QAEntry, len(entries))
	for i, e := range entries {
		kws := make([]string, 0, len(e.Keywords))
		for _, k := range e.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		normalized[i] = domain.QAEntry{Keywords: kws, Response: e.Response, Reference: e.Reference}
	}
	return &Base{entries: normalized, fallback: fallback}
}

// Default returns the built-in table for The Discovery of India.
func Default() *Base {
	b, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("knowledge: embedded table: %v", err))
	}
	return b
}

// Load reads a YAML table from path. An empty path yields Default.
func Load(path string) (*Base, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML table.
func Parse(data []byte) (*Base, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	if doc.Fallback.Response == "" {
		return nil, errors.New("knowledge base: fallback response is required")
	}
	return New(doc.Entries, doc.Fallback), nil
}

// Lookup returns the first entry with a keyword contained in query,
// compared case-insensitively.
func (b *Base) Lookup(query string) (domain.QAEntry, bool) {
	lower := strings.ToLower(query)
	for _, e := range b.entries {
		for _, k := range e.Keywords {
			if strings.Contains(lower, k) {
				return e, true
			}
		}
	}
	return domain.QAEntry{}, false
}

// Fallback is the answer used when nothing else matches.
func (b *Base) Fallback() domain.QAEntry { return b.fallback }

// Entries returns the table in lookup order.
func (b *Base) Entries() []domain.QAEntry { return b.entries }
