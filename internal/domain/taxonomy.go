package domain

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/alimikegami/quicart/pkg/errs"
	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

type CategoryTaxonomy struct {
	Sizes []string `yaml:"sizes,omitempty" json:"sizes,omitempty"`
	// Genders maps a gender to its subcategories.
	Genders       map[string][]string `yaml:"genders,omitempty" json:"genders,omitempty"`
	SubCategories []string            `yaml:"subCategories,omitempty" json:"subCategories,omitempty"`
	Materials     []string            `yaml:"materials,omitempty" json:"materials,omitempty"`
}

type Taxonomy map[Category]CategoryTaxonomy

func ParseTaxonomy(data []byte) (Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}

	for category := range t {
		if _, err := ParseCategory(string(category)); err != nil {
			return nil, err
		}
	}

	for _, category := range Categories {
		ct, ok := t[category]
		if !ok {
			return nil, fmt.Errorf("taxonomy is missing category %s", category)
		}
		if category.SizedStock() && (len(ct.Sizes) == 0 || len(ct.Genders) == 0) {
			return nil, fmt.Errorf("taxonomy category %s needs sizes and genders", category)
		}
	}

	return t, nil
}

var defaultTaxonomy = sync.OnceValue(func() Taxonomy {
	t, err := ParseTaxonomy(taxonomyYAML)
	if err != nil {
		panic(err)
	}
	return t
})

// DefaultTaxonomy returns the built-in category taxonomy.
func DefaultTaxonomy() Taxonomy {
	return defaultTaxonomy()
}

func (t Taxonomy) Validate(category Category, gender, subCategory string) error {
	ct, ok := t[category]
	if !ok {
		return errs.NewValidationError("category", fmt.Sprintf("unknown category %q", category))
	}

	if subCategory == "" {
		return errs.NewValidationError("subCategory", "is required")
	}

	if category.SizedStock() {
		if gender == "" {
			return errs.NewValidationError("gender", "is required")
		}
		subs, ok := ct.Genders[gender]
		if !ok {
			return errs.NewValidationError("gender", fmt.Sprintf("unknown gender %q", gender))
		}
		if !slices.Contains(subs, subCategory) {
			return errs.NewValidationError("subCategory", fmt.Sprintf("%q is not a %s %s subcategory", subCategory, gender, category))
		}
		return nil
	}

	if !slices.Contains(ct.SubCategories, subCategory) {
		return errs.NewValidationError("subCategory", fmt.Sprintf("%q is not a %s subcategory", subCategory, category))
	}

	return nil
}

// ValidateMaterial accepts an empty material.
func (t Taxonomy) ValidateMaterial(category Category, material string) error {
	if material == "" {
		return nil
	}

	if !slices.Contains(t[category].Materials, material) {
		return errs.NewValidationError("material", fmt.Sprintf("unknown material %q", material))
	}

	return nil
}
