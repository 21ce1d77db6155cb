package routine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML form of a routine, shareable between hosts.
type File struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Steps       []map[string]any `yaml:"steps"`
}

// LoadFile reads a single routine YAML file.
func LoadFile(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("routine path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routine %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse routine %s: %w", path, err)
	}

	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return nil, fmt.Errorf("routine %s: %w", path, ErrNameRequired)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("routine %s: %w", path, ErrNoSteps)
	}
	normalizeSteps(f.Steps)
	return &f, nil
}

// LoadDir loads all routine files from a directory, sorted by name.
// A missing directory yields no routines.
func LoadDir(dir string) ([]*File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read routines dir %s: %w", dir, err)
	}

	files := make([]*File, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		f, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Import reads a routine YAML file and saves it into the store,
// overwriting any routine of the same name.
func (s *Store) Import(path string) (*File, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := s.Save(f.Name, f.Steps, f.Description); err != nil {
		return nil, err
	}
	return f, nil
}

// ImportDirs imports every routine found in the given directories, with
// first-hit precedence on name collisions across directories.
func (s *Store) ImportDirs(dirs []string) ([]string, error) {
	seen := make(map[string]bool)
	imported := make([]string, 0)

	for _, dir := range dirs {
		files, err := LoadDir(dir)
		if err != nil {
			return imported, err
		}
		for _, f := range files {
			if seen[f.Name] {
				continue
			}
			if err := s.Save(f.Name, f.Steps, f.Description); err != nil {
				return imported, err
			}
			seen[f.Name] = true
			imported = append(imported, f.Name)
		}
	}
	return imported, nil
}

// Export writes a stored routine to a YAML file.
func (s *Store) Export(name, path string) error {
	r, err := s.Load(name)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(&File{
		Name:        name,
		Description: r.Description,
		Steps:       r.Steps,
	})
	if err != nil {
		return fmt.Errorf("encode routine %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write routine %s: %w", path, err)
	}
	return nil
}

// normalizeSteps rewrites yaml.v3 nested map[any]any values into
// map[string]any so steps match their JSON decoding.
func normalizeSteps(steps []map[string]any) {
	for _, step := range steps {
		for k, v := range step {
			step[k] = normalizeValue(v)
		}
	}
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, elem := range t {
			t[k] = normalizeValue(elem)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			out[fmt.Sprint(k)] = normalizeValue(elem)
		}
		return out
	case []any:
		for i, elem := range t {
			t[i] = normalizeValue(elem)
		}
		return t
	case int:
		return float64(t)
	default:
		return v
	}
}
