package model

import "time"

// Document represents a processed data-room document. Documents are
// deduplicated by content hash: uploading the same bytes twice resolves to
// the same Document. Once created, a document and its page sequence are
// immutable (administrative deletion aside).
type Document struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	FileHash    string     `json:"fileHash"` // sha256 of the raw bytes, dedup key
	FilePath    string     `json:"filePath"` // object store key of the original file
	Summary     string     `json:"summary"`
	PageCount   int        `json:"pageCount"`
	UploadedAt  time.Time  `json:"uploadedAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	Pages       []*Page    `json:"pages,omitempty"`
}

// Page is a single page of a document. Page numbers are 1-based, dense and
// contiguous across 1..Document.PageCount.
type Page struct {
	DocumentID  string  `json:"documentId"`
	PageNum     int     `json:"pageNum"`
	Text        string  `json:"text"`
	Summary     string  `json:"summary"`
	Significant bool    `json:"significant"` // legally/materially significant per classifier
	ImagePath   string  `json:"imagePath"`   // object store key of the rendered page
	Confidence  float64 `json:"confidence,omitempty"`
}

// Page returns the page with the given 1-based number or nil.
func (d *Document) Page(num int) *Page {
	for _, p := range d.Pages {
		if p.PageNum == num {
			return p
		}
	}
	return nil
}

// SignificantPages returns the page numbers flagged as significant, in page
// order.
func (d *Document) SignificantPages() []int {
	var nums []int
	for _, p := range d.Pages {
		if p.Significant {
			nums = append(nums, p.PageNum)
		}
	}
	return nums
}

// PageSummaries returns a page number to summary map covering every page.
func (d *Document) PageSummaries() map[int]string {
	ret := make(map[int]string, len(d.Pages))
	for _, p := range d.Pages {
		ret[p.PageNum] = p.Summary
	}
	return ret
}
