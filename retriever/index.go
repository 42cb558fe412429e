// Package retriever answers documentation lookups for the workflow. It wraps
// a prebuilt embedded vector index and layers a process-lifetime cache keyed
// by exact query text on top, so repeated lookups within one process never
// touch the index twice.
package retriever

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

const collectionName = "uigen_docs"

// Result is one scored snippet from the index. The embedding is carried along
// so the MMR re-ranker can measure redundancy between candidates.
type Result struct {
	Content   string
	Score     float32
	Embedding []float32
}

// Searcher is the index capability the Retriever depends on.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]Result, error)
}

// Index is a chromem-go backed vector index persisted on disk. It is built
// offline and opened read-only at request time.
type Index struct {
	db     *chromem.DB
	col    *chromem.Collection
	logger *zap.Logger
}

// OpenIndex opens (or creates) the persistent index at path using the given
// embedding function.
func OpenIndex(path string, embed chromem.EmbeddingFunc, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	col, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}
	logger.Info("vector index opened", zap.String("path", path), zap.Int("documents", col.Count()))
	return &Index{db: db, col: col, logger: logger}, nil
}

// Search returns up to k results for the query, most relevant first.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Result, error) {
	count := ix.col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	raw, err := ix.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		results = append(results, Result{
			Content:   r.Content,
			Score:     r.Similarity,
			Embedding: r.Embedding,
		})
	}
	return results, nil
}

// Count reports how many documents the index holds.
func (ix *Index) Count() int { return ix.col.Count() }

// AddDocument stores one documentation snippet under the given id.
func (ix *Index) AddDocument(ctx context.Context, id, content string) error {
	return ix.col.AddDocuments(ctx, []chromem.Document{{ID: id, Content: content}}, 1)
}

// indexableExtensions are the documentation file types picked up by BuildFromDir.
var indexableExtensions = map[string]bool{
	".md":  true,
	".mdx": true,
	".txt": true,
	".tsx": true,
	".ts":  true,
}

// BuildFromDir walks a documentation directory and indexes every supported
// file as a single document keyed by its relative path. Used by the offline
// `uigen index` command; the serve path never writes.
func (ix *Index) BuildFromDir(ctx context.Context, dir string) (int, error) {
	var docs []chromem.Document
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !indexableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		docs = append(docs, chromem.Document{ID: filepath.ToSlash(rel), Content: string(data)})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk docs dir: %w", err)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("no documentation files found under %s", dir)
	}
	if err := ix.col.AddDocuments(ctx, docs, 4); err != nil {
		return 0, fmt.Errorf("index documents: %w", err)
	}
	ix.logger.Info("documentation indexed", zap.Int("documents", len(docs)))
	return len(docs), nil
}
