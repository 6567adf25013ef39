package enrichment

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/orgball2608/hashtag-discovery/internal/domain"
)

//go:embed taxonomy.json
var defaultTaxonomy []byte

// Category is a named bucket recognized by any of its keywords.
type Category struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Taxonomy is the fixed vocabulary used by the keyword classifier.
type Taxonomy struct {
	Genres      []Category `json:"genres"`
	Experiences []Category `json:"experiences"`
}

// LoadTaxonomy reads the taxonomy at path, or the built-in one when path is empty.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data := defaultTaxonomy
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
		}
	}
	return ParseTaxonomy(data)
}

func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	t.Genres = normalizeCategories(t.Genres)
	t.Experiences = normalizeCategories(t.Experiences)
	return &t, nil
}

func normalizeCategories(categories []Category) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		keywords := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		c.Keywords = keywords
		out = append(out, c)
	}
	return out
}

// Classify assigns every category with at least one keyword contained in text
// (case-insensitive). Names come back in taxonomy order, without duplicates.
func (t *Taxonomy) Classify(text string) domain.Classification {
	lower := strings.ToLower(text)
	return domain.Classification{
		Groups:      match(t.Genres, lower),
		Experiences: match(t.Experiences, lower),
	}
}

func match(categories []Category, lower string) []string {
	names := make([]string, 0)
	seen := make(map[string]struct{})
	for _, c := range categories {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		for _, k := range c.Keywords {
			if strings.Contains(lower, k) {
				seen[c.Name] = struct{}{}
				names = append(names, c.Name)
				break
			}
		}
	}
	return names
}
