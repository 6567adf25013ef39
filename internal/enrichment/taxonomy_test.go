package enrichment

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const testTaxonomy = `{
  "genres": [
    {"name": "Coffee", "keywords": ["Coffee", "latte"]},
    {"name": "Nightlife", "keywords": ["bar", "cocktail"]},
    {"name": "Coffee", "keywords": ["espresso"]}
  ],
  "experiences": [
    {"name": "Rooftop", "keywords": ["rooftop"]},
    {"name": "", "keywords": ["ignored"]}
  ]
}`

func TestClassify(t *testing.T) {
	tax, err := ParseTaxonomy([]byte(testTaxonomy))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	tests := []struct {
		name        string
		text        string
		groups      []string
		experiences []string
	}{
		{"no match", "quiet morning walk", []string{}, []string{}},
		{"case insensitive", "Best LATTE in town", []string{"Coffee"}, []string{}},
		{"taxonomy order", "cocktail bar after our coffee on the ROOFTOP", []string{"Coffee", "Nightlife"}, []string{"Rooftop"}},
		{"duplicate names once", "espresso and a latte", []string{"Coffee"}, []string{}},
		{"substring match", "barista life", []string{"Nightlife"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tax.Classify(tt.text)
			if !reflect.DeepEqual(got.Groups, tt.groups) {
				t.Errorf("groups = %#v, want %#v", got.Groups, tt.groups)
			}
			if !reflect.DeepEqual(got.Experiences, tt.experiences) {
				t.Errorf("experiences = %#v, want %#v", got.Experiences, tt.experiences)
			}
		})
	}
}

func TestLoadTaxonomy(t *testing.T) {
	builtIn, err := LoadTaxonomy("")
	if err != nil {
		t.Fatalf("built-in taxonomy: %v", err)
	}
	if len(builtIn.Genres) == 0 || len(builtIn.Experiences) == 0 {
		t.Fatal("built-in taxonomy should not be empty")
	}

	path := filepath.Join(t.TempDir(), "taxonomy.json")
	if err := os.WriteFile(path, []byte(testTaxonomy), 0o600); err != nil {
		t.Fatal(err)
	}
	custom, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatalf("custom taxonomy: %v", err)
	}
	if len(custom.Experiences) != 1 {
		t.Errorf("categories without a name should be dropped, got %d", len(custom.Experiences))
	}
	if custom.Genres[0].Keywords[0] != "coffee" {
		t.Errorf("keywords should be lowercased, got %q", custom.Genres[0].Keywords[0])
	}

	if _, err := LoadTaxonomy(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
