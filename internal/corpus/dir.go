package corpus

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/lectio-dev/lectio/internal/domain"
)

// DirSource walks a local directory tree.
type DirSource struct {
	root string
}

// NewDirSource validates that root exists and is a directory.
func NewDirSource(root string) (*DirSource, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, domain.ErrCorpusNotFound
	}
	return &DirSource{root: root}, nil
}

// Walk visits every text-bearing file under the root in lexical order.
// Unreadable files are logged and skipped rather than aborting the walk.
func (s *DirSource) Walk(ctx context.Context, fn func(doc Document) error) error {
	return filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isTextFile(d.Name()) {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			log.Printf("skipping unreadable file %s: %v", p, err)
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			rel = p
		}
		return fn(Document{
			Path: filepath.ToSlash(rel),
			Text: string(data),
		})
	})
}
