package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Dir manages the per source state files.
type Dir struct {
	root string
	mx   sync.Mutex
}

// NewDir creates a new Dir at the specified root path.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// StatePath returns the path of a source state file.
// Returns: {root}/{source}.yaml
func (d *Dir) StatePath(source string) string {
	return filepath.Join(d.root, SanitizeFileName(source)+".yaml")
}

// Load loads the state of a source. A source without a state file starts at
// the top.
func (d *Dir) Load(source string) (*SourceState, error) {
	d.mx.Lock()
	defer d.mx.Unlock()

	st := NewSourceState(source)
	if err := LoadYAML(d.StatePath(source), st); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return nil, fmt.Errorf("failed to load source state: %w", err)
	}
	st.Source = source
	st.Validate()

	return st, nil
}

// Save saves the state of a source.
func (d *Dir) Save(st *SourceState) error {
	if st == nil || st.Source == "" {
		return fmt.Errorf("cannot save a state without a source")
	}

	d.mx.Lock()
	defer d.mx.Unlock()

	if err := SaveYAML(d.StatePath(st.Source), st); err != nil {
		return fmt.Errorf("failed to save source state: %w", err)
	}

	return nil
}
