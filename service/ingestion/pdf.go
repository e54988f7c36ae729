package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Splitter turns a raw source file into per-page artifacts: one rendered page
// blob and one extracted text per page. The two sequences may disagree in
// length for damaged sources; the pipeline reconciles them.
type Splitter interface {
	Split(data []byte, filename string) (images [][]byte, texts []string, err error)
}

// PDFSplitter implements Splitter with pdfcpu: the source is optimized,
// split into single-page PDFs (the stored page rendition) and its page text
// pulled from the decompressed content streams.
type PDFSplitter struct{}

// NewPDFSplitter returns a pdfcpu backed splitter.
func NewPDFSplitter() *PDFSplitter { return &PDFSplitter{} }

var pageNumExpr = regexp.MustCompile(`(\d+)\D*$`)

// Split splits the document into pages. A source pdfcpu cannot open or split
// is reported as corrupt; text extraction is best-effort and yields empty
// strings when content cannot be decoded.
func (s *PDFSplitter) Split(data []byte, filename string) ([][]byte, []string, error) {
	tempDir, err := os.MkdirTemp("", "diligence-split-*")
	if err != nil {
		return nil, nil, err
	}
	defer os.RemoveAll(tempDir)

	source := filepath.Join(tempDir, "source.pdf")
	if err = os.WriteFile(source, data, 0o600); err != nil {
		return nil, nil, err
	}
	optimized := filepath.Join(tempDir, "optimized.pdf")
	if err = api.OptimizeFile(source, optimized, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to optimize %v: %w", filename, err)
	}
	pageCount, err := api.PageCountFile(optimized)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count pages of %v: %w", filename, err)
	}
	if err = api.SplitFile(optimized, tempDir, 1, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to split %v: %w", filename, err)
	}

	images := make([][]byte, 0, pageCount)
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pagePath := filepath.Join(tempDir, fmt.Sprintf("optimized_%d.pdf", pageNum))
		pageData, err := os.ReadFile(pagePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read page %d of %v: %w", pageNum, filename, err)
		}
		images = append(images, pageData)
	}

	texts := s.extractTexts(optimized, tempDir, pageCount)
	return images, texts, nil
}

// extractTexts pulls per-page text from the PDF content streams. Extraction
// quality varies with the source; failures degrade to empty page text rather
// than failing the split.
func (s *PDFSplitter) extractTexts(optimized, tempDir string, pageCount int) []string {
	texts := make([]string, pageCount)
	contentDir := filepath.Join(tempDir, "content")
	if err := os.MkdirAll(contentDir, 0o700); err != nil {
		return texts
	}
	if err := api.ExtractContentFile(optimized, contentDir, nil, nil); err != nil {
		return texts
	}
	entries, err := os.ReadDir(contentDir)
	if err != nil {
		return texts
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		match := pageNumExpr.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		pageNum, err := strconv.Atoi(match[1])
		if err != nil || pageNum < 1 || pageNum > pageCount {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(contentDir, name))
		if err != nil {
			continue
		}
		texts[pageNum-1] = contentText(raw)
	}
	return texts
}

var textShowExpr = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*T[jJ]`)

// contentText pulls the literal strings of text-showing operators out of a
// decompressed content stream.
func contentText(content []byte) string {
	matches := textShowExpr.FindAllSubmatch(content, -1)
	if len(matches) == 0 {
		return ""
	}
	var out []byte
	for _, match := range matches {
		out = append(out, unescapePDFString(match[1])...)
		out = append(out, ' ')
	}
	return string(out)
}

func unescapePDFString(in []byte) []byte {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		if in[i] != '\\' || i+1 == len(in) {
			out = append(out, in[i])
			continue
		}
		i++
		switch in[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r', 'b', 'f':
			// rarely meaningful in extracted text
		default:
			out = append(out, in[i])
		}
	}
	return out
}
