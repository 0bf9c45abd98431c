// Package chunker splits file text into fixed-size overlapping chunks.
package chunker

import (
	"github.com/lectio-dev/lectio/internal/domain"
)

// Config controls the chunk window. Lengths count runes.
type Config struct {
	MaxLen  int
	Overlap int
}

// DefaultConfig provides sane defaults for prose corpora.
func DefaultConfig() Config {
	return Config{
		MaxLen:  1200,
		Overlap: 200,
	}
}

// Chunker produces deterministic chunk sequences. Offsets are rune offsets
// into the original text and feed record-id derivation, so the same input
// and config must always yield the same chunks.
type Chunker struct {
	cfg Config
}

// New validates the window parameters and returns a Chunker.
// Overlap must satisfy 0 <= overlap < maxLen.
func New(cfg Config) (*Chunker, error) {
	if cfg.MaxLen <= 0 || cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxLen {
		return nil, domain.ErrInvalidChunkParams
	}
	return &Chunker{cfg: cfg}, nil
}

// Chunk splits text from the named file into chunks of at most MaxLen runes.
// Consecutive chunk start offsets differ by exactly MaxLen-Overlap, every
// rune is covered by at least one chunk, and the final chunk may be short.
// Empty input yields zero chunks.
func (c *Chunker) Chunk(file, text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.cfg.MaxLen {
		return []domain.Chunk{{File: file, Offset: 0, Text: text}}
	}

	stride := c.cfg.MaxLen - c.cfg.Overlap
	chunks := make([]domain.Chunk, 0, (len(runes)+stride-1)/stride)
	for start := 0; start < len(runes); start += stride {
		end := start + c.cfg.MaxLen
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			File:   file,
			Offset: start,
			Text:   string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
