package driver

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lockfile models the fkio.lock contents.
type Lockfile struct {
	Tool     string           `yaml:"tool"`
	Packages []*LockedPackage `yaml:"packages"`
}

// LockedPackage captures a single resolved script library.
type LockedPackage struct {
	Name     string `yaml:"name"`
	Source   string `yaml:"source"`
	Ref      string `yaml:"ref,omitempty"`
	Commit   string `yaml:"commit,omitempty"`
	Path     string `yaml:"path,omitempty"`
	Checksum string `yaml:"checksum,omitempty"`
}

// NewLockfile constructs a lockfile seeded with tool metadata.
func NewLockfile(tool string) *Lockfile {
	return &Lockfile{
		Tool:     strings.TrimSpace(tool),
		Packages: []*LockedPackage{},
	}
}

// Add records or replaces the entry for pkg.Name.
func (l *Lockfile) Add(pkg *LockedPackage) {
	for i, existing := range l.Packages {
		if existing.Name == pkg.Name {
			l.Packages[i] = pkg
			return
		}
	}
	l.Packages = append(l.Packages, pkg)
}

// Find returns the locked entry for name, nil when absent.
func (l *Lockfile) Find(name string) *LockedPackage {
	for _, pkg := range l.Packages {
		if pkg.Name == name {
			return pkg
		}
	}
	return nil
}

// LoadLockfile parses fkio.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var l Lockfile
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", path, err)
	}
	return &l, nil
}

// Save writes the lockfile with entries sorted by name so diffs stay
// stable.
func (l *Lockfile) Save(path string) error {
	sort.Slice(l.Packages, func(i, j int) bool {
		return l.Packages[i].Name < l.Packages[j].Name
	})
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("lockfile: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
