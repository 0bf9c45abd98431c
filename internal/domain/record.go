package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// SchemaVersion is the payload schema carried by every indexed record.
// Bump it when payload field names or semantics change; the vector store
// refuses to mix schema versions within one collection.
const SchemaVersion = 1

// recordNamespace is the fixed UUIDv5 namespace for record ids.
var recordNamespace = uuid.MustParse("2f1b9a4e-8c3d-4f6a-9b0e-5d7c1e2a6f43")

// Payload is the displayable part of an indexed record. The vector store is
// a retrieval index, not the source of truth for document content.
type Payload struct {
	File   string `json:"file"`
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// Record is the persisted unit in the vector store.
type Record struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// ScoredRecord is a record with the similarity score reported by the store.
// Higher scores are more relevant.
type ScoredRecord struct {
	Record
	Score float32
}

// CollectionSchema binds a collection to one embedding model and one
// vector dimensionality. Checked at collection-creation time so a model
// switch fails fast instead of silently corrupting rankings.
type CollectionSchema struct {
	Name      string
	Dimension int
	Model     string
	Version   int
}

// RecordID derives the deterministic id for a chunk of file at the given
// rune offset. Re-indexing an unchanged corpus produces identical ids, so
// upserts overwrite rather than duplicate.
func RecordID(file string, offset int) string {
	return uuid.NewSHA1(recordNamespace, []byte(fmt.Sprintf("%s:%d", file, offset))).String()
}

// NewRecord builds an indexed record from a chunk and its embedding.
func NewRecord(chunk Chunk, vector []float32) Record {
	return Record{
		ID:     RecordID(chunk.File, chunk.Offset),
		Vector: vector,
		Payload: Payload{
			File:   chunk.File,
			Text:   chunk.Text,
			Offset: chunk.Offset,
		},
	}
}
