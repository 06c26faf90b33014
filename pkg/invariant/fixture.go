package invariant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlDefinition mirrors Definition in a form convenient to hand-author as
// YAML; production registries are still Go literals, this exists only to
// let tests load a data-driven fixture table instead of repeating large
// literal slices.
type yamlDefinition struct {
	ID                          string   `yaml:"id"`
	Class                       string   `yaml:"class"`
	Name                        string   `yaml:"name"`
	Description                 string   `yaml:"description"`
	ApplicableEnforcementPoints []string `yaml:"applicable_enforcement_points"`
	Severity                    string   `yaml:"severity"`
	EvaluatorTag                string   `yaml:"evaluator_tag"`
	RequiredFields              []string `yaml:"required_fields"`
	Expression                  string   `yaml:"expression"`
}

type yamlRegistryFile struct {
	Invariants []yamlDefinition `yaml:"invariants"`
}

// LoadInvariantRegistryYAML reads a fixture invariant registry table from a
// YAML file and builds a Registry from it. Intended for tests: production
// registries are assembled from Go literals.
func LoadInvariantRegistryYAML(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("invariant: reading fixture %s: %w", path, err)
	}

	var file yamlRegistryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("invariant: parsing fixture %s: %w", path, err)
	}

	defs := make([]Definition, 0, len(file.Invariants))
	for _, yd := range file.Invariants {
		eps := make([]EnforcementPoint, 0, len(yd.ApplicableEnforcementPoints))
		for _, ep := range yd.ApplicableEnforcementPoints {
			eps = append(eps, EnforcementPoint(ep))
		}
		defs = append(defs, Definition{
			ID:                          yd.ID,
			Class:                       Class(yd.Class),
			Name:                        yd.Name,
			Description:                 yd.Description,
			ApplicableEnforcementPoints: eps,
			Severity:                    Severity(yd.Severity),
			EvaluatorTag:                yd.EvaluatorTag,
			RequiredFields:              yd.RequiredFields,
			Expression:                  yd.Expression,
		})
	}

	return NewRegistry(defs)
}
