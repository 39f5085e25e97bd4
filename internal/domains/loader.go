package domains

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
)

//go:embed domains.yaml
var defaultConfig []byte

// Entry is one binding as written in the yaml file.
type Entry struct {
	Domain        string `yaml:"domain"`
	ContainerName string `yaml:"container_name"`
	AppName       string `yaml:"app_name"`
	Description   string `yaml:"description"`
}

// Config is the root structure of domains.yaml.
type Config struct {
	Active  []Entry `yaml:"active"`
	Planned []Entry `yaml:"planned"`
}

// Loader reads a domains file from disk.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and parses the domains file.
func (l *Loader) Load() (Config, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read domains file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a domains document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse domains yaml: %w", err)
	}
	for i, e := range append(append([]Entry{}, cfg.Active...), cfg.Planned...) {
		if strings.TrimSpace(e.Domain) == "" {
			return Config{}, fmt.Errorf("domains entry %d: missing domain", i)
		}
	}
	return cfg, nil
}

// Load builds a Directory from filePath, or from the built-in table when
// filePath is empty.
func Load(filePath string) (*Directory, error) {
	if filePath == "" {
		return Default(), nil
	}
	cfg, err := NewLoader(filePath).Load()
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// Default returns the Directory built from the embedded domains.yaml.
func Default() *Directory {
	cfg, err := Parse(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("embedded domains.yaml: %v", err))
	}
	return New(cfg)
}

func (e Entry) binding(status domain.BindingStatus) domain.DomainBinding {
	return domain.DomainBinding{
		Domain:        strings.TrimSpace(e.Domain),
		ContainerName: strings.TrimSpace(e.ContainerName),
		AppName:       strings.TrimSpace(e.AppName),
		Description:   e.Description,
		Status:        status,
	}
}
