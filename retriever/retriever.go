package retriever

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Profile controls how a lookup hits the index. FetchK larger than TopK
// enables MMR re-ranking over the wider candidate pool.
type Profile struct {
	TopK   int
	FetchK int
	Lambda float64
}

// BroadProfile is used during component selection and code generation: a few
// diverse snippets drawn from a large candidate pool.
var BroadProfile = Profile{TopK: 3, FetchK: 30, Lambda: 0.42}

// NarrowProfile is used during repair lookups: the single most relevant
// snippet.
var NarrowProfile = Profile{TopK: 1, FetchK: 1, Lambda: 1.0}

// Config tunes the retriever.
type Config struct {
	// MaxSnippetLines bounds each returned snippet to keep downstream prompt
	// sizes predictable.
	MaxSnippetLines int
	// MaxCacheEntries caps the query cache. Queries beyond the cap are still
	// answered, just not cached.
	MaxCacheEntries int
}

// Retriever resolves batches of documentation queries against the index,
// caching results by exact query text for the lifetime of the process.
type Retriever struct {
	index  Searcher
	cfg    Config
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string][]string
}

// New builds a Retriever over the given index.
func New(index Searcher, cfg Config, logger *zap.Logger) *Retriever {
	if cfg.MaxSnippetLines <= 0 {
		cfg.MaxSnippetLines = 250
	}
	if cfg.MaxCacheEntries <= 0 {
		cfg.MaxCacheEntries = 4096
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		index:  index,
		cfg:    cfg,
		logger: logger,
		cache:  make(map[string][]string),
	}
}

// CacheSize reports how many queries are currently cached.
func (r *Retriever) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// Lookup resolves the queries using the given profile and returns the
// combined snippet list. Duplicate queries collapse to one lookup; cached
// queries are answered without touching the index; the remaining misses fan
// out concurrently and are awaited as a unit before the cache is updated.
func (r *Retriever) Lookup(ctx context.Context, queries []string, profile Profile) ([]string, error) {
	unique := dedupe(queries)
	if len(unique) == 0 {
		return nil, nil
	}

	var snippets []string
	var misses []string
	r.mu.Lock()
	for _, q := range unique {
		if cached, ok := r.cache[q]; ok {
			snippets = append(snippets, cached...)
		} else {
			misses = append(misses, q)
		}
	}
	r.mu.Unlock()
	r.logger.Debug("retrieval batch",
		zap.Int("queries", len(unique)),
		zap.Int("cache_hits", len(unique)-len(misses)),
	)
	if len(misses) == 0 {
		return snippets, nil
	}

	fetched := make([][]string, len(misses))
	errs := make([]error, len(misses))
	var wg sync.WaitGroup
	for i, q := range misses {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			fetched[i], errs[i] = r.fetch(ctx, q, profile)
		}(i, q)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	for i, q := range misses {
		snippets = append(snippets, fetched[i]...)
		if len(r.cache) < r.cfg.MaxCacheEntries {
			r.cache[q] = fetched[i]
		}
	}
	r.mu.Unlock()
	return snippets, nil
}

// fetch performs one index lookup with optional MMR re-ranking and snippet
// truncation.
func (r *Retriever) fetch(ctx context.Context, query string, profile Profile) ([]string, error) {
	fetchK := profile.FetchK
	if fetchK < profile.TopK {
		fetchK = profile.TopK
	}
	candidates, err := r.index.Search(ctx, query, fetchK)
	if err != nil {
		return nil, err
	}
	var picked []Result
	if fetchK > profile.TopK {
		picked = rerankMMR(candidates, profile.Lambda, profile.TopK)
	} else {
		picked = candidates
		if len(picked) > profile.TopK {
			picked = picked[:profile.TopK]
		}
	}
	snippets := make([]string, 0, len(picked))
	for _, res := range picked {
		snippets = append(snippets, truncateLines(res.Content, r.cfg.MaxSnippetLines))
	}
	return snippets, nil
}

func dedupe(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

// truncateLines keeps the first max lines of content, marking the cut.
func truncateLines(content string, max int) string {
	lines := strings.Split(content, "\n")
	if len(lines) <= max {
		return content
	}
	return strings.Join(lines[:max], "\n") + "..."
}
