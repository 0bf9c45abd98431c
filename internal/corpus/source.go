// Package corpus enumerates the text files of a corpus, whether they live
// on local disk or in an S3-compatible bucket.
package corpus

import (
	"context"
	"path"
	"strings"
)

// Document is one text file of the corpus. Path is relative to the corpus
// root and uses forward slashes, so record ids are stable regardless of
// where the corpus is mounted.
type Document struct {
	Path string
	Text string
}

// Source yields the text-bearing files of a corpus in a deterministic order.
type Source interface {
	Walk(ctx context.Context, fn func(doc Document) error) error
}

// textExtensions are the file suffixes treated as text-bearing.
var textExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
}

func isTextFile(name string) bool {
	return textExtensions[strings.ToLower(path.Ext(name))]
}
