package domain

// Chunk is a contiguous span of text cut from one source file.
// Offset counts runes from the start of the file and, together with the
// file's path relative to the corpus root, uniquely identifies the chunk.
type Chunk struct {
	File   string
	Offset int
	Text   string
}

// SearchResult is a request-scoped match returned by a similarity search.
type SearchResult struct {
	File  string
	Score float32
	Text  string
}
