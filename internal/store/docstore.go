package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Reserved top-level keys in the persisted record layout. Attributes using
// these keys would collide with the record's own fields and are rejected on
// append.
const (
	attrKeyID   = "id"
	attrKeyText = "normalized_text"
)

// DocumentStore is the ordered, position-addressed record set and the single
// source of truth correlating the vector and lexical indexes. Records are
// created exactly once, never mutated, never deleted.
type DocumentStore struct {
	mu      sync.RWMutex
	records []*DocumentRecord
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{}
}

// Len returns the number of stored records.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ValidateAttributes rejects attribute maps using the reserved layout keys.
// Callers coordinating several stores must run this before mutating any of
// them: a failure after a partial append would break position alignment.
func ValidateAttributes(attrs map[string]any) error {
	for key := range attrs {
		if key == attrKeyID || key == attrKeyText {
			return fmt.Errorf("attribute key %q is reserved", key)
		}
	}
	return nil
}

// Append assigns the next sequential position to the record and stores it.
// The position is returned; once assigned it never changes.
func (s *DocumentStore) Append(record *DocumentRecord) (int, error) {
	if err := ValidateAttributes(record.Attributes); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record.DocIndex = len(s.records)
	s.records = append(s.records, record)
	return record.DocIndex, nil
}

// Get returns the record at the given position.
func (s *DocumentStore) Get(docIndex int) (*DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if docIndex < 0 || docIndex >= len(s.records) {
		return nil, fmt.Errorf("doc index %d out of range [0,%d)", docIndex, len(s.records))
	}
	return s.records[docIndex], nil
}

// All returns the records in insertion order. The slice is a copy; the
// records are shared.
func (s *DocumentStore) All() []*DocumentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*DocumentRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Save writes one self-contained JSON record per line, preserving insertion
// order exactly. Order is semantically significant: it is the alignment key
// across all three stores. Attributes are flattened alongside the id and
// text fields.
func (s *DocumentStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document store directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create document store file: %w", err)
	}

	w := bufio.NewWriter(file)
	for _, record := range s.records {
		line := make(map[string]any, len(record.Attributes)+2)
		for k, v := range record.Attributes {
			line[k] = v
		}
		line[attrKeyID] = record.ID
		line[attrKeyText] = record.NormalizedText

		data, err := json.Marshal(line)
		if err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("marshal record %d: %w", record.DocIndex, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("write record %d: %w", record.DocIndex, err)
		}
	}

	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush document store: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close document store file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Load replaces the store contents from a JSONL file written by Save.
func (s *DocumentStore) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document store file: %w", err)
	}
	defer file.Close()

	var records []*DocumentRecord

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var line map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return fmt.Errorf("parse record at line %d: %w", lineNo, err)
		}

		id, _ := line[attrKeyID].(string)
		text, _ := line[attrKeyText].(string)
		if id == "" {
			return fmt.Errorf("record at line %d has no id", lineNo)
		}
		delete(line, attrKeyID)
		delete(line, attrKeyText)

		records = append(records, &DocumentRecord{
			ID:             id,
			NormalizedText: text,
			Attributes:     line,
			DocIndex:       len(records),
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read document store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	return nil
}
