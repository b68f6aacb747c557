package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/endi/internal/model"
)

// Document is the full persisted state of a FactStore
type Document struct {
	Facts   []model.Fact           `json:"facts"`
	Entries []model.KnowledgeEntry `json:"entries"`
}

// Backend persists and restores the store document.
// Save always receives the complete state and replaces what was stored.
type Backend interface {
	Load() (Document, error)
	Save(doc Document) error
}

// JSONFile stores the document as indented UTF-8 JSON
type JSONFile struct {
	path string
}

// NewJSONFile creates a backend writing to path
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Load reads the document; a missing file yields an empty document
func (j *JSONFile) Load() (Document, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, nil
		}
		return Document{}, fmt.Errorf("read %s: %w", j.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse %s: %w", j.path, err)
	}
	return doc, nil
}

// Save writes the document through a temp file and a rename,
// so a crash never leaves a half-written memory file behind
func (j *JSONFile) Save(doc Document) error {
	if doc.Facts == nil {
		doc.Facts = []model.Fact{}
	}
	if doc.Entries == nil {
		doc.Entries = []model.KnowledgeEntry{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".memory-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, j.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", j.path, err)
	}
	return nil
}
