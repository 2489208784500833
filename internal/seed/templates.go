package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

//go:embed templates.json
var templatesJSON []byte

// Templates are the canned messages grouped by category
type Templates struct {
	Categories map[string][]string `json:"categories"`
}

// LoadTemplates decodes the embedded template file
func LoadTemplates() (*Templates, error) {
	var t Templates
	if err := json.Unmarshal(templatesJSON, &t); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	return &t, nil
}

// Names returns the category names, sorted
func (t *Templates) Names() []string {
	names := lo.Keys(t.Categories)
	sort.Strings(names)
	return names
}

func (t *Templates) Has(category string) bool {
	_, ok := t.Categories[category]
	return ok
}

// Category returns the messages of one category
func (t *Templates) Category(category string) ([]string, error) {
	messages, ok := t.Categories[category]
	if !ok {
		return nil, fmt.Errorf("unknown category %q, available: %s", category, strings.Join(t.Names(), ", "))
	}
	return messages, nil
}

// All returns every template, category by category in name order
func (t *Templates) All() []string {
	return lo.FlatMap(t.Names(), func(name string, _ int) []string {
		return t.Categories[name]
	})
}
