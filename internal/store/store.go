// Package store persists the device/routine document as a single JSON file.
//
// The document is always read and written whole. Concurrent writers are
// not coordinated; the last writer wins.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Device is a registered pin with its settings.
type Device struct {
	Pin         int     `json:"pin"`
	Type        string  `json:"type"`
	Description string  `json:"description,omitempty"`
	ActiveLow   bool    `json:"active_low,omitempty"`
	PullUp      bool    `json:"pull_up,omitempty"`
	Frequency   float64 `json:"frequency,omitempty"`
}

// Routine is a named, persisted list of sequence steps.
type Routine struct {
	Description string           `json:"description"`
	Steps       []map[string]any `json:"steps"`
}

// Document is the whole persisted configuration.
type Document struct {
	Devices  map[string]Device  `json:"devices"`
	Routines map[string]Routine `json:"routines,omitempty"`
}

// NewDocument returns an empty document with initialized maps.
func NewDocument() *Document {
	return &Document{
		Devices:  make(map[string]Device),
		Routines: make(map[string]Routine),
	}
}

// Store loads and replaces the configuration document.
type Store interface {
	// Load reads the whole document. A missing file yields an empty document.
	Load() (*Document, error)

	// Replace writes the whole document, superseding the previous content.
	Replace(doc *Document) error
}

// FileStore is the JSON file implementation of Store.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the document from disk.
func (s *FileStore) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDocument(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", s.path, err)
	}
	if doc.Devices == nil {
		doc.Devices = make(map[string]Device)
	}
	if doc.Routines == nil {
		doc.Routines = make(map[string]Routine)
	}
	return &doc, nil
}

// Replace writes the document atomically via a temp file rename.
func (s *FileStore) Replace(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".pin_config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp config: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace config %s: %w", s.path, err)
	}
	return nil
}
