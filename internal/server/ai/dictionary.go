package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/dmitrijs2005/oneiromind/internal/filex"
	"github.com/dmitrijs2005/oneiromind/internal/logging"
)

const (
	indexFileName = "index.json"
	indexVersion  = 1
)

// IndexOptions describe how the dream dictionary is chunked, embedded and
// cached.
type IndexOptions struct {
	SourcePath   string
	IndexDir     string
	Model        string
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

type indexedChunk struct {
	Text   string    `json:"text"`
	Vector []float64 `json:"vector"`
}

type indexFile struct {
	Version      int            `json:"version"`
	Model        string         `json:"model"`
	ChunkSize    int            `json:"chunk_size"`
	ChunkOverlap int            `json:"chunk_overlap"`
	SourceSHA256 string         `json:"source_sha256"`
	Chunks       []indexedChunk `json:"chunks"`
}

// DictionaryRetriever is an in-memory cosine-similarity index over the dream
// dictionary. It is read-only after construction and safe for concurrent use.
type DictionaryRetriever struct {
	chunks []indexedChunk
	query  embedding.Embedder
	topK   int
}

var _ retriever.Retriever = (*DictionaryRetriever)(nil)

// LoadOrBuildDictionary reuses the cached index in opts.IndexDir when it was
// built from the same source with the same settings; otherwise it chunks and
// embeds the source and writes the cache.
func LoadOrBuildDictionary(ctx context.Context, opts IndexOptions, docs, query embedding.Embedder, log logging.Logger) (*DictionaryRetriever, error) {
	src, err := os.ReadFile(opts.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	sum := sha256.Sum256(src)
	want := indexFile{
		Version:      indexVersion,
		Model:        opts.Model,
		ChunkSize:    opts.ChunkSize,
		ChunkOverlap: opts.ChunkOverlap,
		SourceSHA256: hex.EncodeToString(sum[:]),
	}

	dir, err := filex.EnsureDir(opts.IndexDir)
	if err != nil {
		return nil, fmt.Errorf("index dir: %w", err)
	}
	path := filepath.Join(dir, indexFileName)

	cached, err := readIndex(path)
	switch {
	case err == nil && cached.matches(want):
		log.Info(ctx, "dictionary index loaded", "path", path, "chunks", len(cached.Chunks))
		return &DictionaryRetriever{chunks: cached.Chunks, query: query, topK: opts.TopK}, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		log.Warn(ctx, "dictionary index unreadable, rebuilding", "path", path, "error", err)
	}

	texts := SplitText(string(src), opts.ChunkSize, opts.ChunkOverlap)
	if len(texts) == 0 {
		return nil, fmt.Errorf("dictionary %s is empty", opts.SourcePath)
	}
	vectors, err := docs.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed dictionary: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed dictionary: got %d vectors for %d chunks", len(vectors), len(texts))
	}

	want.Chunks = make([]indexedChunk, len(texts))
	for i := range texts {
		want.Chunks[i] = indexedChunk{Text: texts[i], Vector: vectors[i]}
	}
	if err := writeIndex(path, &want); err != nil {
		log.Warn(ctx, "dictionary index not cached", "path", path, "error", err)
	} else {
		log.Info(ctx, "dictionary index created", "path", path, "chunks", len(want.Chunks))
	}

	return &DictionaryRetriever{chunks: want.Chunks, query: query, topK: opts.TopK}, nil
}

func (f *indexFile) matches(want indexFile) bool {
	return f.Version == want.Version &&
		f.Model == want.Model &&
		f.ChunkSize == want.ChunkSize &&
		f.ChunkOverlap == want.ChunkOverlap &&
		f.SourceSHA256 == want.SourceSHA256 &&
		len(f.Chunks) > 0
}

func readIndex(path string) (*indexFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f indexFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &f, nil
}

func writeIndex(path string, f *indexFile) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return filex.WriteFileAtomic(path, b)
}

// Retrieve returns the top-k chunks most similar to query, best first. The
// cosine score is stored under the "score" metadata key.
func (r *DictionaryRetriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK := r.topK
	o := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)
	if o.TopK != nil {
		topK = *o.TopK
	}
	if topK <= 0 || len(r.chunks) == 0 {
		return nil, nil
	}

	vecs, err := r.query.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}

	type hit struct {
		idx   int
		score float64
	}
	hits := make([]hit, len(r.chunks))
	for i, c := range r.chunks {
		hits[i] = hit{idx: i, score: cosine(vecs[0], c.Vector)}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	topK = min(topK, len(hits))
	docs := make([]*schema.Document, 0, topK)
	for _, h := range hits[:topK] {
		docs = append(docs, &schema.Document{
			ID:       strconv.Itoa(h.idx),
			Content:  r.chunks[h.idx].Text,
			MetaData: map[string]any{"score": h.score},
		})
	}
	return docs, nil
}

// RetrieveContext joins the retrieved chunks into a single block.
func (r *DictionaryRetriever) RetrieveContext(ctx context.Context, query string) (string, error) {
	docs, err := r.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
