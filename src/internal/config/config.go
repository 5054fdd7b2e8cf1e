// Package config assembles the bib configuration from environment variables,
// an optional YAML file and built-in defaults.
//
// Sources are merged with dario.cat/mergo in priority order: the first source
// that sets a field wins. Environment variables use the BIB_ prefix, e.g.
// BIB_DATABASE_FILE or BIB_NETWORK_TIMEOUT.
package config

import "time"

// Config is the merged configuration.
type Config struct {
	Database Database `envPrefix:"DATABASE_" yaml:"database"`
	Commands Commands `envPrefix:"COMMANDS_" yaml:"commands"`
	Logging  Logging  `envPrefix:"LOGGING_" yaml:"logging"`
	Network  Network  `envPrefix:"NETWORK_" yaml:"network"`

	// FilePath points at the YAML config file. Env: BIB_CONFIG.
	FilePath string `env:"CONFIG" yaml:"-"`
}

// Database locates the backing YAML file and toggles git tracking.
type Database struct {
	File string `env:"FILE" yaml:"file"`
	Git  bool   `env:"GIT" yaml:"git"`
}

// Commands holds per-command settings.
type Commands struct {
	Edit Edit `envPrefix:"EDIT_" yaml:"edit"`
}

// Edit configures manual entry creation and the external editor.
type Edit struct {
	DefaultEntryType string `env:"DEFAULT_ENTRY_TYPE" yaml:"default_entry_type"`
	Editor           string `env:"EDITOR" yaml:"editor"`
}

// Logging configures the CLI logger.
type Logging struct {
	Level string `env:"LEVEL" yaml:"level"`
	File  string `env:"FILE" yaml:"file"`
}

// Network configures outbound metadata lookups. The URLs are overridable so
// that mirrors and test servers can stand in for the public services.
type Network struct {
	Timeout        time.Duration `env:"TIMEOUT" yaml:"timeout"`
	DOIURL         string        `env:"DOI_URL" yaml:"doi_url"`
	ArxivURL       string        `env:"ARXIV_URL" yaml:"arxiv_url"`
	OpenLibraryURL string        `env:"OPENLIBRARY_URL" yaml:"openlibrary_url"`
	GoogleBooksURL string        `env:"GOOGLEBOOKS_URL" yaml:"googlebooks_url"`
}

// Default endpoint and file settings.
const (
	DefaultDOIURL         = "https://doi.org"
	DefaultArxivURL       = "https://export.arxiv.org/api/query"
	DefaultOpenLibraryURL = "https://openlibrary.org/api/books"
	DefaultGoogleBooksURL = "https://www.googleapis.com/books/v1/volumes"
	DefaultDatabaseFile   = "~/.local/share/bib/literature.yaml"
	DefaultEntryType      = "article"
	DefaultEditor         = "vim"
	DefaultTimeout        = 10 * time.Second
)
