package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

var ErrClosed = errors.New("search index closed")

// SegmentDoc is the indexed view of a segment: the analysis texts plus the
// owner and project used for filtering.
type SegmentDoc struct {
	SegmentID      uint    `json:"segment_id"`
	ProjectID      uint    `json:"project_id"`
	UserID         string  `json:"user_id"`
	Transcription  string  `json:"transcription"`
	TranslatedText string  `json:"translated_text"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
}

// Hit is one search result.
type Hit struct {
	SegmentID uint    `json:"segment_id"`
	ProjectID uint    `json:"project_id"`
	Score     float64 `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// Index is a full-text index over segment transcriptions and translations,
// backed by bleve.
type Index struct {
	index bleve.Index

	mu     sync.RWMutex
	closed bool
}

func buildMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Store = true
	text.IncludeTermVectors = true

	keyword := bleve.NewKeywordFieldMapping()
	keyword.Store = true

	numeric := bleve.NewNumericFieldMapping()
	numeric.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("transcription", text)
	doc.AddFieldMappingsAt("translated_text", text)
	doc.AddFieldMappingsAt("user_id", keyword)
	doc.AddFieldMappingsAt("segment_id", numeric)
	doc.AddFieldMappingsAt("project_id", numeric)
	doc.AddFieldMappingsAt("start_time", numeric)
	doc.AddFieldMappingsAt("end_time", numeric)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Open opens the index at path, creating it when missing.
func Open(path string) (*Index, error) {
	var idx bleve.Index
	if _, err := os.Stat(path); err == nil {
		i, e := bleve.Open(path)
		if e != nil {
			return nil, e
		}
		idx = i
	} else if os.IsNotExist(err) {
		i, e := bleve.New(path, buildMapping())
		if e != nil {
			return nil, e
		}
		idx = i
	} else {
		return nil, err
	}
	return &Index{index: idx}, nil
}

// OpenInMemory builds a throwaway index for tests.
func OpenInMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, err
	}
	return &Index{index: idx}, nil
}

func (ix *Index) guard() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.closed {
		return ErrClosed
	}
	return nil
}

func docID(segmentID uint) string { return fmt.Sprintf("segment:%d", segmentID) }

// IndexSegment adds or replaces a segment document. Segments with neither a
// transcription nor a translation are removed instead, so re-indexing after
// an analysis reset cleans up.
func (ix *Index) IndexSegment(ctx context.Context, doc SegmentDoc) error {
	if err := ix.guard(); err != nil {
		return err
	}
	if doc.Transcription == "" && doc.TranslatedText == "" {
		return ix.index.Delete(docID(doc.SegmentID))
	}
	return ix.index.Index(docID(doc.SegmentID), doc)
}

// DeleteSegment removes a segment document; deleting an unknown segment is
// a no-op.
func (ix *Index) DeleteSegment(ctx context.Context, segmentID uint) error {
	if err := ix.guard(); err != nil {
		return err
	}
	return ix.index.Delete(docID(segmentID))
}

// DeleteProject removes every indexed segment of a project.
func (ix *Index) DeleteProject(ctx context.Context, projectID uint) error {
	if err := ix.guard(); err != nil {
		return err
	}
	q := bleve.NewNumericRangeQuery(float64ptr(float64(projectID)), float64ptr(float64(projectID)+0.5))
	q.SetField("project_id")
	req := bleve.NewSearchRequest(q)
	req.Size = 10000
	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return err
	}
	batch := ix.index.NewBatch()
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	return ix.index.Batch(batch)
}

// Query searches a user's segments, optionally restricted to one project.
// projectID 0 means all projects.
func (ix *Index) Query(ctx context.Context, userID, query string, projectID uint, limit int) ([]Hit, error) {
	if err := ix.guard(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	match := bleve.NewMatchQuery(query)

	owner := bleve.NewTermQuery(userID)
	owner.SetField("user_id")

	conj := bleve.NewConjunctionQuery(match, owner)
	if projectID > 0 {
		pq := bleve.NewNumericRangeQuery(float64ptr(float64(projectID)), float64ptr(float64(projectID)+0.5))
		pq.SetField("project_id")
		conj.AddQuery(pq)
	}

	req := bleve.NewSearchRequest(conj)
	req.Size = limit
	req.Fields = []string{"segment_id", "project_id"}
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Highlight.AddField("transcription")
	req.Highlight.AddField("translated_text")

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score, Fragments: h.Fragments}
		if v, ok := h.Fields["segment_id"].(float64); ok {
			hit.SegmentID = uint(v)
		}
		if v, ok := h.Fields["project_id"].(float64); ok {
			hit.ProjectID = uint(v)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil
	}
	ix.closed = true
	return ix.index.Close()
}

func float64ptr(v float64) *float64 { return &v }
