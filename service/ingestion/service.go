// Package ingestion implements the document pipeline: raw file bytes in,
// deduplicated, paginated and classified Document aggregate out.
package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/dataroomhq/diligence/internal/clock"
	"github.com/dataroomhq/diligence/internal/idgen"
	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/dao"
	"github.com/dataroomhq/diligence/service/objectstore"
	"github.com/dataroomhq/diligence/service/oracle"
	"github.com/dataroomhq/diligence/tracing"
)

// Config controls pipeline behaviour.
type Config struct {
	// PageWorkers bounds the number of concurrent per-page oracle calls.
	PageWorkers int `json:"pageWorkers" yaml:"pageWorkers"`

	// FallbackSummaryChars is the number of leading text characters used for
	// the deterministic page summary when the oracle is unavailable.
	FallbackSummaryChars int `json:"fallbackSummaryChars" yaml:"fallbackSummaryChars"`
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		PageWorkers:          4,
		FallbackSummaryChars: 200,
	}
}

// Service turns raw files into persisted Document aggregates.
type Service struct {
	documents dao.Service[string, model.Document]
	store     objectstore.Service
	oracle    oracle.Service
	splitter  Splitter
	config    Config
}

// Option customises the pipeline.
type Option func(*Service)

// WithSplitter overrides the page splitter (tests use a fake).
func WithSplitter(splitter Splitter) Option {
	return func(s *Service) { s.splitter = splitter }
}

// WithConfig overrides the pipeline configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// New creates the ingestion pipeline.
func New(documents dao.Service[string, model.Document], store objectstore.Service, oracleService oracle.Service, options ...Option) *Service {
	ret := &Service{
		documents: documents,
		store:     store,
		oracle:    oracleService,
		splitter:  NewPDFSplitter(),
		config:    DefaultConfig(),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.config.PageWorkers <= 0 {
		ret.config.PageWorkers = DefaultConfig().PageWorkers
	}
	return ret
}

// Ingest processes raw file bytes into a Document. Re-uploading identical
// bytes returns the already processed Document unchanged. The Document and
// its pages become visible atomically: nothing is committed when any step
// before the final save fails.
func (s *Service) Ingest(ctx context.Context, data []byte, filename string) (doc *model.Document, err error) {
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("ingestion.Ingest %s", filename), "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	if len(data) == 0 {
		return nil, &Error{Filename: filename, Err: fmt.Errorf("empty file")}
	}

	sum := sha256.Sum256(data)
	fileHash := hex.EncodeToString(sum[:])
	span.WithAttributes(map[string]string{"document.hash": fileHash})

	if existing, err := s.lookupByHash(ctx, fileHash); err != nil {
		return nil, err
	} else if existing != nil {
		log.Printf("ingestion: %v already processed as %v", filename, existing.ID)
		return existing, nil
	}

	docID := idgen.New()[:8]

	images, texts, err := s.splitter.Split(data, filename)
	if err != nil {
		return nil, &Error{Filename: filename, Err: err}
	}
	pageCount := len(images)
	if len(texts) != len(images) {
		log.Printf("ingestion: page count mismatch for %v: %d images vs %d texts, using minimum",
			filename, len(images), len(texts))
		if len(texts) < pageCount {
			pageCount = len(texts)
		}
	}
	if pageCount == 0 {
		return nil, &Error{Filename: filename, Err: fmt.Errorf("no pages")}
	}

	filePath := fmt.Sprintf("documents/%s/%s", docID, filename)
	if err = s.store.Put(ctx, filePath, data); err != nil {
		return nil, err
	}

	pages, err := s.processPages(ctx, docID, images[:pageCount], texts[:pageCount])
	if err != nil {
		return nil, err
	}

	summaries := make([]string, pageCount)
	for i, page := range pages {
		summaries[i] = page.Summary
	}
	analysis, err := s.oracle.AnalyzeDocument(ctx, summaries, pageCount)
	if err != nil {
		log.Printf("ingestion: document analysis failed for %v: %v", filename, err)
		analysis = &oracle.Analysis{Summary: oracle.FallbackSummary}
	}
	significant := make(map[int]bool, len(analysis.SignificantPages))
	for _, num := range analysis.SignificantPages {
		significant[num] = true
	}
	for _, page := range pages {
		page.Significant = significant[page.PageNum]
	}

	now := clock.Now()
	doc = &model.Document{
		ID:          docID,
		Filename:    filename,
		FileHash:    fileHash,
		FilePath:    filePath,
		Summary:     analysis.Summary,
		PageCount:   pageCount,
		UploadedAt:  now,
		ProcessedAt: &now,
		Pages:       pages,
	}
	if err = s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a document together with its stored blobs.
func (s *Service) Delete(ctx context.Context, docID string) error {
	doc, err := s.documents.Load(ctx, docID)
	if err != nil || doc == nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.FilePath); err != nil {
		log.Printf("ingestion: failed to delete original of %v: %v", docID, err)
	}
	for _, page := range doc.Pages {
		if page.ImagePath == "" {
			continue
		}
		if err := s.store.Delete(ctx, page.ImagePath); err != nil {
			log.Printf("ingestion: failed to delete page image %v: %v", page.ImagePath, err)
		}
	}
	return s.documents.Delete(ctx, docID)
}

// processPages summarizes and stores every page with bounded parallelism.
// Results are assembled in page-number order regardless of completion order,
// since the document-level analysis is sequence sensitive.
func (s *Service) processPages(ctx context.Context, docID string, images [][]byte, texts []string) ([]*model.Page, error) {
	pages := make([]*model.Page, len(images))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.config.PageWorkers)

	for i := range images {
		index := i
		group.Go(func() error {
			pageNum := index + 1
			summary, err := s.oracle.SummarizePage(groupCtx, images[index], texts[index], pageNum)
			if err != nil {
				log.Printf("ingestion: page %d summary failed for %v, using text fallback: %v", pageNum, docID, err)
				summary = oracle.PageFallbackSummary(texts[index], pageNum, s.config.FallbackSummaryChars)
			}
			imagePath := fmt.Sprintf("documents/%s/pages/page_%d.pdf", docID, pageNum)
			if err = s.store.Put(groupCtx, imagePath, images[index]); err != nil {
				return err
			}
			pages[index] = &model.Page{
				DocumentID: docID,
				PageNum:    pageNum,
				Text:       texts[index],
				Summary:    summary,
				ImagePath:  imagePath,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (s *Service) lookupByHash(ctx context.Context, fileHash string) (*model.Document, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if doc.FileHash == fileHash {
			return doc, nil
		}
	}
	return nil, nil
}
