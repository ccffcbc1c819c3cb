package models

// ImportReport is the per-item manifest of a catalog import run. One bad
// template never aborts the remaining items.
type ImportReport struct {
	RunID    string          `json:"runId"`
	Imported []string        `json:"imported"`
	Failed   []ImportFailure `json:"failed"`
}

type ImportFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// TemplateCatalog is the versioned catalog resource parsed from YAML.
type TemplateCatalog struct {
	Version   int              `yaml:"version" json:"version"`
	Templates []DefinitionSpec `yaml:"templates" json:"templates"`
	Roles     []RoleSpec       `yaml:"roles" json:"roles"`
}

type RoleSpec struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}
