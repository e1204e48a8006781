// Package catalog holds the consultation packages and consultation types
// offered for booking.
package catalog

import (
	"fmt"

	"github.com/spf13/viper"
)

type Package struct {
	ID          string   `json:"id" mapstructure:"id"`
	Name        string   `json:"name" mapstructure:"name"`
	Duration    int      `json:"duration" mapstructure:"duration"`
	Price       int64    `json:"price" mapstructure:"price"`
	Description string   `json:"description" mapstructure:"description"`
	Features    []string `json:"features" mapstructure:"features"`
}

type ConsultationType struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
}

// Catalog is immutable once loaded.
type Catalog struct {
	packages []Package
	types    []ConsultationType
}

func New(packages []Package, types []ConsultationType) (*Catalog, error) {
	if len(packages) == 0 {
		return nil, fmt.Errorf("catalog has no packages")
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("catalog has no consultation types")
	}
	seen := map[string]bool{}
	for _, p := range packages {
		if p.ID == "" || p.Duration <= 0 || p.Price <= 0 {
			return nil, fmt.Errorf("invalid package %q", p.ID)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate package %q", p.ID)
		}
		seen[p.ID] = true
	}
	return &Catalog{
		packages: append([]Package(nil), packages...),
		types:    append([]ConsultationType(nil), types...),
	}, nil
}

// Load reads a YAML/JSON catalog file. An empty path yields Default().
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var packages []Package
	if err := v.UnmarshalKey("packages", &packages); err != nil {
		return nil, fmt.Errorf("decode packages: %w", err)
	}
	var types []ConsultationType
	if err := v.UnmarshalKey("consultation_types", &types); err != nil {
		return nil, fmt.Errorf("decode consultation types: %w", err)
	}

	return New(packages, types)
}

func (c *Catalog) Packages() []Package {
	return append([]Package(nil), c.packages...)
}

func (c *Catalog) ConsultationTypes() []ConsultationType {
	return append([]ConsultationType(nil), c.types...)
}

func (c *Catalog) Package(id string) (Package, bool) {
	for _, p := range c.packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

func (c *Catalog) ConsultationType(id string) (ConsultationType, bool) {
	for _, t := range c.types {
		if t.ID == id {
			return t, true
		}
	}
	return ConsultationType{}, false
}

// Default is the built-in catalog used when no file is configured.
func Default() *Catalog {
	c, _ := New(defaultPackages, defaultTypes)
	return c
}

var defaultPackages = []Package{
	{
		ID:          "basic",
		Name:        "Basic Consultation",
		Duration:    30,
		Price:       999,
		Description: "Quick insights into your current situation",
		Features: []string{
			"30-minute video consultation",
			"Basic birth chart reading",
			"Current planetary influences",
			"Immediate guidance",
		},
	},
	{
		ID:          "premium",
		Name:        "Premium Consultation",
		Duration:    45,
		Price:       1499,
		Description: "Detailed analysis with remedies",
		Features: []string{
			"45-minute video consultation",
			"Detailed birth chart analysis",
			"Career & relationship insights",
			"Remedies and suggestions",
			"Follow-up support",
		},
	},
	{
		ID:          "detailed",
		Name:        "Detailed Consultation",
		Duration:    60,
		Price:       1999,
		Description: "Complete life analysis and guidance",
		Features: []string{
			"60-minute video consultation",
			"Complete life path analysis",
			"Yearly predictions",
			"Gemstone recommendations",
			"Written report included",
			"7-day follow-up support",
		},
	},
}

var defaultTypes = []ConsultationType{
	{ID: "birth-chart", Name: "Birth Chart Reading", Description: "Complete analysis of your birth chart"},
	{ID: "career", Name: "Career Guidance", Description: "Professional and career-related insights"},
	{ID: "marriage", Name: "Marriage & Relationships", Description: "Love, marriage, and relationship guidance"},
	{ID: "health", Name: "Health Astrology", Description: "Health-related astrological insights"},
	{ID: "finance", Name: "Financial Astrology", Description: "Money and investment guidance"},
	{ID: "general", Name: "General Consultation", Description: "General life guidance and predictions"},
}
