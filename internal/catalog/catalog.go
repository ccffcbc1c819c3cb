// Package catalog holds the predefined workflow template catalog as a
// versioned configuration resource, embedded at build time and
// overridable with a file at runtime.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/portalteam/approvalflow/internal/config"
	"github.com/portalteam/approvalflow/pkg/approvalflow/models"
)

//go:embed catalog.yaml
var embedded []byte

// Load parses the template catalog, preferring the file configured via
// AFLOW_TEMPLATE_CATALOG_FILE over the embedded default.
func Load() (models.TemplateCatalog, error) {
	data := embedded
	if path := config.GetSystemSettingString(config.TEMPLATE_CATALOG_FILE); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return models.TemplateCatalog{}, fmt.Errorf("read template catalog %s: %w", path, err)
		}
		data = b
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (models.TemplateCatalog, error) {
	var c models.TemplateCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return models.TemplateCatalog{}, fmt.Errorf("parse template catalog: %w", err)
	}
	return c, nil
}
