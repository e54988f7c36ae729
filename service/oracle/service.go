// Package oracle defines the classifier/summarizer capability used by the
// ingestion pipeline. The oracle is treated as fallible and replaceable:
// every caller has a deterministic fallback, so ingestion never hard-fails
// solely because the oracle is unavailable.
package oracle

import (
	"context"
	"fmt"
)

// Error indicates the oracle was unavailable or returned an unusable
// response. Callers recover with local fallbacks where the pipeline defines
// one.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle: %v: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Analysis is the document-level judgment derived from ordered page
// summaries.
type Analysis struct {
	Summary          string
	SignificantPages []int
}

// Service produces natural-language judgments about document pages.
type Service interface {
	// SummarizePage returns a short summary of a single page given its
	// rendered image, extracted text and 1-based number.
	SummarizePage(ctx context.Context, image []byte, text string, pageNum int) (string, error)

	// AnalyzeDocument combines the ordered page summaries into a
	// document-level summary and the set of significant page numbers.
	AnalyzeDocument(ctx context.Context, pageSummaries []string, totalPages int) (*Analysis, error)
}
