package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStoreAppend(t *testing.T) {
	s := NewDocumentStore()

	t.Run("assigns sequential positions", func(t *testing.T) {
		for i, id := range []string{"a", "b", "c"} {
			pos, err := s.Append(&DocumentRecord{ID: id, NormalizedText: id})
			require.NoError(t, err)
			assert.Equal(t, i, pos)
		}
		assert.Equal(t, 3, s.Len())
	})

	t.Run("rejects reserved attribute keys", func(t *testing.T) {
		_, err := s.Append(&DocumentRecord{
			ID:         "d",
			Attributes: map[string]any{"id": "sneaky"},
		})
		assert.Error(t, err)

		_, err = s.Append(&DocumentRecord{
			ID:         "d",
			Attributes: map[string]any{"normalized_text": "sneaky"},
		})
		assert.Error(t, err)
	})

	t.Run("duplicate ids create independent entries", func(t *testing.T) {
		before := s.Len()
		_, err := s.Append(&DocumentRecord{ID: "a", NormalizedText: "again"})
		require.NoError(t, err)
		assert.Equal(t, before+1, s.Len())
	})
}

func TestValidateAttributes(t *testing.T) {
	assert.NoError(t, ValidateAttributes(nil))
	assert.NoError(t, ValidateAttributes(map[string]any{"name": "Ada"}))
	assert.Error(t, ValidateAttributes(map[string]any{"id": "x"}))
	assert.Error(t, ValidateAttributes(map[string]any{"normalized_text": "x"}))
}

func TestDocumentStoreGet(t *testing.T) {
	s := NewDocumentStore()
	_, err := s.Append(&DocumentRecord{ID: "only"})
	require.NoError(t, err)

	record, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "only", record.ID)

	_, err = s.Get(-1)
	assert.Error(t, err)
	_, err = s.Get(1)
	assert.Error(t, err)
}

func TestDocumentRecordMetadata(t *testing.T) {
	record := &DocumentRecord{
		ID:             "cand-1",
		NormalizedText: "go engineer",
		Attributes:     map[string]any{"name": "Sam", "years": 5},
	}

	meta := record.Metadata()
	assert.Equal(t, "cand-1", meta["id"])
	assert.Equal(t, "Sam", meta["name"])
	assert.NotContains(t, meta, "normalized_text")

	// The copy must not alias the record's attributes.
	meta["name"] = "changed"
	assert.Equal(t, "Sam", record.Attributes["name"])
}

func TestDocumentStoreSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.jsonl")

	s := NewDocumentStore()
	_, err := s.Append(&DocumentRecord{
		ID:             "cand-1",
		NormalizedText: "python aws",
		Attributes:     map[string]any{"name": "Ada"},
	})
	require.NoError(t, err)
	_, err = s.Append(&DocumentRecord{
		ID:             "cand-2",
		NormalizedText: "java spring",
	})
	require.NoError(t, err)
	require.NoError(t, s.Save(path))

	loaded := NewDocumentStore()
	require.NoError(t, loaded.Load(path))
	require.Equal(t, 2, loaded.Len())

	first, err := loaded.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "cand-1", first.ID)
	assert.Equal(t, "python aws", first.NormalizedText)
	assert.Equal(t, "Ada", first.Attributes["name"])
	assert.Equal(t, 0, first.DocIndex)

	second, err := loaded.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "cand-2", second.ID)
	assert.Equal(t, 1, second.DocIndex)
}

func TestDocumentStoreSaveFlattensAttributes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.jsonl")

	s := NewDocumentStore()
	_, err := s.Append(&DocumentRecord{
		ID:             "cand-1",
		NormalizedText: "text",
		Attributes:     map[string]any{"location": "Berlin"},
	})
	require.NoError(t, err)
	require.NoError(t, s.Save(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var line map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
	assert.Equal(t, "cand-1", line["id"])
	assert.Equal(t, "text", line["normalized_text"])
	assert.Equal(t, "Berlin", line["location"])

	assert.False(t, scanner.Scan(), "one record means one line")
}

func TestDocumentStoreLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		s := NewDocumentStore()
		assert.Error(t, s.Load(filepath.Join(dir, "absent.jsonl")))
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.jsonl")
		require.NoError(t, os.WriteFile(path, []byte("{not json\n"), 0o644))
		s := NewDocumentStore()
		assert.Error(t, s.Load(path))
	})

	t.Run("record without id", func(t *testing.T) {
		path := filepath.Join(dir, "noid.jsonl")
		require.NoError(t, os.WriteFile(path, []byte(`{"normalized_text":"x"}`+"\n"), 0o644))
		s := NewDocumentStore()
		assert.Error(t, s.Load(path))
	})

	t.Run("blank lines are skipped", func(t *testing.T) {
		path := filepath.Join(dir, "blank.jsonl")
		content := `{"id":"a","normalized_text":"x"}` + "\n\n" + `{"id":"b","normalized_text":"y"}` + "\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		s := NewDocumentStore()
		require.NoError(t, s.Load(path))
		assert.Equal(t, 2, s.Len())
	})
}
