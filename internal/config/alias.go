package config

import (
	"os"
	"sort"
	"sync"

	"github.com/a1s/lazyrows/internal/config/data"
)

// Aliases maps short names to source kinds.
type Aliases struct {
	Alias map[string]string `yaml:"aliases"`
	mx    sync.RWMutex      `yaml:"-"`
}

// DefaultAliases are the built-in source aliases.
var DefaultAliases = map[string]string{
	// Local
	"sql":    "sql/table",
	"sqlite": "sql/table",
	"bolt":   "bolt/bucket",
	"mem":    "mem/rows",
	"demo":   "mem/rows",

	// AWS
	"s3":    "s3/object",
	"ec2":   "ec2/instance",
	"i":     "ec2/instance",
	"iam":   "iam/user",
	"user":  "iam/user",
	"eks":   "eks/cluster",
	"cfn":   "cfn/stack",
	"stack": "cfn/stack",
	"cc":    "cc/resource",
}

// NewAliases creates an Aliases with default aliases loaded.
func NewAliases() *Aliases {
	a := &Aliases{
		Alias: make(map[string]string, len(DefaultAliases)),
	}
	for k, v := range DefaultAliases {
		a.Alias[k] = v
	}
	return a
}

// Load loads aliases from the default aliases file.
func (a *Aliases) Load() error {
	return a.LoadFrom(AppAliasesFile)
}

// LoadFrom loads aliases from a specific file path. File aliases take
// precedence over the defaults.
func (a *Aliases) LoadFrom(path string) error {
	a.mx.Lock()
	defer a.mx.Unlock()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	loaded := &Aliases{
		Alias: make(map[string]string),
	}
	if err := data.LoadYAML(path, loaded); err != nil {
		return err
	}
	for k, v := range loaded.Alias {
		a.Alias[k] = v
	}

	return nil
}

// Get returns the source kind for an alias, or the alias itself.
func (a *Aliases) Get(alias string) string {
	a.mx.RLock()
	defer a.mx.RUnlock()

	if kind, ok := a.Alias[alias]; ok {
		return kind
	}
	return alias
}

// Set sets an alias.
func (a *Aliases) Set(alias, kind string) {
	a.mx.Lock()
	defer a.mx.Unlock()

	a.Alias[alias] = kind
}

// Names returns the sorted alias names.
func (a *Aliases) Names() []string {
	a.mx.RLock()
	defer a.mx.RUnlock()

	names := make([]string, 0, len(a.Alias))
	for name := range a.Alias {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
