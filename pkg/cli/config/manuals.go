package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/vigia/pkg/domain/model"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Manuals holds the reference manual catalog configuration
type Manuals struct {
	Path string
}

// Flags returns CLI flags for Manuals configuration
func (m *Manuals) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "manuals",
			Usage:       "Path to a YAML file listing the reference manuals (built-in catalog if not set)",
			Category:    "Reports",
			Sources:     cli.EnvVars("VIGIA_MANUALS"),
			Destination: &m.Path,
		},
	}
}

// Configure returns the manual catalog from the file, or the built-in one
func (m *Manuals) Configure() (*model.ManualCatalog, error) {
	if m.Path == "" {
		return model.GetDefaultManuals(), nil
	}
	return LoadManualsFromFile(m.Path)
}

// LoadManualsFromFile loads the manual catalog from YAML file
func LoadManualsFromFile(path string) (*model.ManualCatalog, error) {
	if path == "" {
		return nil, goerr.New("manual catalog file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "manual catalog file not found",
				goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read manual catalog file",
			goerr.V("path", path))
	}

	var catalog model.ManualCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, goerr.Wrap(err, "failed to parse YAML manual catalog",
			goerr.V("path", path))
	}

	if err := catalog.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid manual catalog",
			goerr.V("path", path))
	}

	return &catalog, nil
}
