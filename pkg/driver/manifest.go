// Package driver loads the project manifest and lockfile the CLI works
// with: fkio.yml declares the program metadata and the script libraries to
// fetch, fkio.lock records what was resolved.
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestName is the manifest file looked up next to the entry script.
	ManifestName = "fkio.yml"
	// LockfileName records resolved script libraries.
	LockfileName = "fkio.lock"
)

// Dependency names one script library fetched from a git repository. Path
// selects the script file inside the repository evaluated into the root
// scope before the program runs.
type Dependency struct {
	Name string `yaml:"name"`
	Git  string `yaml:"git"`
	Ref  string `yaml:"ref,omitempty"`
	Path string `yaml:"path,omitempty"`
}

// Manifest models fkio.yml.
type Manifest struct {
	Desc  string       `yaml:"desc,omitempty"`
	Debug bool         `yaml:"debug,omitempty"`
	Deps  []Dependency `yaml:"deps,omitempty"`
}

// LoadManifest parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	for i, dep := range m.Deps {
		if strings.TrimSpace(dep.Name) == "" {
			return nil, fmt.Errorf("manifest: deps[%d] is missing a name", i)
		}
		if strings.TrimSpace(dep.Git) == "" {
			return nil, fmt.Errorf("manifest: dependency %q is missing a git url", dep.Name)
		}
	}
	return &m, nil
}

// FindManifest walks from dir upward looking for fkio.yml. Returns the
// empty string when none exists.
func FindManifest(dir string) string {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(cur, ManifestName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return ""
		}
		cur = parent
	}
}
