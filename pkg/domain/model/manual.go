package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/types"
)

// Manual represents a reference manual that a report may be based on
type Manual struct {
	ID   types.ManualID `yaml:"id" json:"id"`
	Name string         `yaml:"name" json:"name"`
}

// Validate validates the manual
func (m *Manual) Validate() error {
	if m.ID == "" {
		return goerr.New("manual ID is required")
	}
	if m.Name == "" {
		return goerr.New("manual name is required", goerr.V("id", m.ID))
	}
	return nil
}

// ManualCatalog represents the set of manuals available for selection
type ManualCatalog struct {
	Manuals []Manual `yaml:"manuals" json:"manuals"`
}

// GetDefaultManuals returns the built-in manual catalog
func GetDefaultManuals() *ManualCatalog {
	return &ManualCatalog{
		Manuals: []Manual{
			{ID: "manual1", Name: "Operations Manual (MO)"},
			{ID: "manual2", Name: "General Maintenance Manual (MGM)"},
			{ID: "manual3", Name: "Aircraft Flight Manual (AFM)"},
			{ID: "manual4", Name: "Quality Control Manual (QCM)"},
			{ID: "manual5", Name: "Ground Operations Manual (GOM)"},
		},
	}
}

// Validate validates the catalog
func (c *ManualCatalog) Validate() error {
	if len(c.Manuals) == 0 {
		return goerr.New("at least one manual is required")
	}

	seen := make(map[types.ManualID]bool)
	for i, m := range c.Manuals {
		if err := m.Validate(); err != nil {
			return goerr.Wrap(err, "invalid manual at index", goerr.V("index", i))
		}
		if seen[m.ID] {
			return goerr.New("duplicate manual ID", goerr.V("id", m.ID))
		}
		seen[m.ID] = true
	}

	return nil
}

// FindManualByID finds a manual by its ID
func (c *ManualCatalog) FindManualByID(id types.ManualID) *Manual {
	for _, m := range c.Manuals {
		if m.ID == id {
			result := m
			return &result
		}
	}
	return nil
}

// IsValidManualID checks if the given manual ID exists in the catalog
func (c *ManualCatalog) IsValidManualID(id types.ManualID) bool {
	return c.FindManualByID(id) != nil
}
