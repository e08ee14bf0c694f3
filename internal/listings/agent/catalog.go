package agent

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed feature_catalog.yaml
var featureCatalogYAML []byte

// FeatureCategory groups related feature tags.
type FeatureCategory struct {
	Name string   `yaml:"name"`
	Tags []string `yaml:"tags"`
}

// FeatureCatalog is the known feature vocabulary offered to the classifier.
type FeatureCatalog struct {
	Categories []FeatureCategory `yaml:"categories"`
}

// LoadFeatureCatalog parses the embedded catalog.
func LoadFeatureCatalog() (FeatureCatalog, error) {
	return parseFeatureCatalog(featureCatalogYAML)
}

func parseFeatureCatalog(data []byte) (FeatureCatalog, error) {
	var catalog FeatureCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return FeatureCatalog{}, fmt.Errorf("parse feature catalog: %w", err)
	}
	if len(catalog.Categories) == 0 {
		return FeatureCatalog{}, fmt.Errorf("parse feature catalog: no categories")
	}
	return catalog, nil
}

// Tags returns every tag in catalog order.
func (c FeatureCatalog) Tags() []string {
	var tags []string
	for _, cat := range c.Categories {
		tags = append(tags, cat.Tags...)
	}
	return tags
}

// PromptBlock renders the catalog as one line per category.
func (c FeatureCatalog) PromptBlock() string {
	var b strings.Builder
	for _, cat := range c.Categories {
		fmt.Fprintf(&b, "- %s: %s\n", cat.Name, strings.Join(cat.Tags, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
