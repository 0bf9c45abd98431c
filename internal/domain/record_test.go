package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordID_Deterministic(t *testing.T) {
	first := RecordID("books/alice.txt", 1200)
	second := RecordID("books/alice.txt", 1200)

	assert.Equal(t, first, second)

	_, err := uuid.Parse(first)
	require.NoError(t, err)
}

func TestRecordID_DistinctAcrossFilesAndOffsets(t *testing.T) {
	ids := map[string]bool{
		RecordID("a.txt", 0):   true,
		RecordID("a.txt", 100): true,
		RecordID("b.txt", 0):   true,
		RecordID("b.txt", 100): true,
	}

	assert.Len(t, ids, 4)
}

func TestNewRecord_CarriesPayload(t *testing.T) {
	chunk := Chunk{File: "notes.md", Offset: 42, Text: "some paragraph"}
	rec := NewRecord(chunk, []float32{0.1, 0.2})

	assert.Equal(t, RecordID("notes.md", 42), rec.ID)
	assert.Equal(t, "notes.md", rec.Payload.File)
	assert.Equal(t, "some paragraph", rec.Payload.Text)
	assert.Equal(t, 42, rec.Payload.Offset)
	assert.Equal(t, []float32{0.1, 0.2}, rec.Vector)
}
