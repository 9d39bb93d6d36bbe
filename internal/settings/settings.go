// Package settings persists engine configuration as a YAML file guarded
// by a mutex store. Values not present in the file are backfilled with
// defaults on load, so a partial config is always usable.
package settings

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const schemaVersion = 1

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const (
	defaultModelAnthropic   = "claude-sonnet-4-5"
	defaultModelOpenAI      = "gpt-5.2"
	defaultOracleTimeoutSec = 120
	defaultIndexFile        = "INDEX.md"
	defaultContentDir       = "skills"
	defaultWorkers          = 1
	defaultMaxAttempts      = 3
)

type Settings struct {
	SchemaVersion    int    `yaml:"schema_version"`
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model,omitempty"`
	OracleTimeoutSec int    `yaml:"oracle_timeout_seconds"`
	IndexFile        string `yaml:"index_file"`
	ContentDir       string `yaml:"content_dir"`
	Workers          int    `yaml:"workers"`
	MaxAttempts      int    `yaml:"max_attempts"`
}

type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultSettings(), nil
		}
		return nil, err
	}
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	backfill(&settings)
	return &settings, nil
}

func (s *Store) Save(settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	backfill(settings)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *Store) Update(fn func(*Settings)) (*Settings, error) {
	settings, err := s.Load()
	if err != nil {
		return nil, err
	}
	fn(settings)
	return settings, s.Save(settings)
}

func defaultSettings() *Settings {
	return &Settings{
		SchemaVersion:    schemaVersion,
		Provider:         ProviderAnthropic,
		Model:            defaultModelAnthropic,
		OracleTimeoutSec: defaultOracleTimeoutSec,
		IndexFile:        defaultIndexFile,
		ContentDir:       defaultContentDir,
		Workers:          defaultWorkers,
		MaxAttempts:      defaultMaxAttempts,
	}
}

func backfill(settings *Settings) {
	if settings.SchemaVersion == 0 {
		settings.SchemaVersion = schemaVersion
	}
	switch settings.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		settings.Provider = ProviderAnthropic
	}
	if settings.Model == "" {
		settings.Model = DefaultModel(settings.Provider)
	}
	if settings.OracleTimeoutSec <= 0 {
		settings.OracleTimeoutSec = defaultOracleTimeoutSec
	}
	if settings.IndexFile == "" {
		settings.IndexFile = defaultIndexFile
	}
	if settings.ContentDir == "" {
		settings.ContentDir = defaultContentDir
	}
	if settings.Workers <= 0 {
		settings.Workers = defaultWorkers
	}
	if settings.MaxAttempts <= 0 || settings.MaxAttempts > defaultMaxAttempts {
		settings.MaxAttempts = defaultMaxAttempts
	}
}

func DefaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return defaultModelOpenAI
	}
	return defaultModelAnthropic
}
