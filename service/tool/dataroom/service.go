// Package dataroom exposes the document corpus to agents: listing stays
// ungated, while anything that pulls page-level content requires approval.
package dataroom

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/dataroomhq/diligence/model"
	"github.com/dataroomhq/diligence/service/dao"
	"github.com/dataroomhq/diligence/service/tool"
)

// GetDocumentsInput selects documents for detailed retrieval.
type GetDocumentsInput struct {
	DocIDs []string `json:"doc_ids"`
}

// GetPagesInput selects specific pages of one document.
type GetPagesInput struct {
	DocID    string `json:"doc_id"`
	PageNums []int  `json:"page_nums"`
}

// Service provides the data-room tool set.
type Service struct {
	documents dao.Service[string, model.Document]
}

// New creates the data-room tool service.
func New(documents dao.Service[string, model.Document]) *Service {
	return &Service{documents: documents}
}

// Definitions returns the data-room tool definitions.
func (s *Service) Definitions() []*tool.Definition {
	return []*tool.Definition{
		{
			Name:        "list_data_room_documents",
			Description: "List all documents in the data room with their summaries and page counts.",
			Handler:     s.list,
		},
		{
			Name:             "get_documents",
			Description:      "Get per-page summaries and the full text of significant pages for specific documents.",
			Input:            reflect.TypeOf(&GetDocumentsInput{}),
			RequiresApproval: true,
			Handler:          s.getDocuments,
		},
		{
			Name:             "get_page_text",
			Description:      "Get the full text of specific pages from a document.",
			Input:            reflect.TypeOf(&GetPagesInput{}),
			RequiresApproval: true,
			Handler:          s.getPageText,
		},
		{
			Name:             "get_page_image",
			Description:      "Get stored page images. Use sparingly, only for visual elements not captured in text.",
			Input:            reflect.TypeOf(&GetPagesInput{}),
			RequiresApproval: true,
			Handler:          s.getPageImage,
		},
	}
}

func (s *Service) list(ctx context.Context, _ interface{}) (string, error) {
	documents, err := s.documents.List(ctx)
	if err != nil {
		return "", err
	}
	if len(documents) == 0 {
		return "No documents found in the data room.", nil
	}
	sort.Slice(documents, func(i, j int) bool {
		return documents[i].UploadedAt.After(documents[j].UploadedAt)
	})
	var sections []string
	for _, doc := range documents {
		sections = append(sections, fmt.Sprintf("Document ID: %s\nSummary: %s\nPages: %d",
			doc.ID, doc.Summary, doc.PageCount))
	}
	return strings.Join(sections, "\n\n---\n\n"), nil
}

func (s *Service) getDocuments(ctx context.Context, in interface{}) (string, error) {
	input := in.(*GetDocumentsInput)
	var sections []string
	for _, docID := range input.DocIDs {
		doc, err := s.documents.Load(ctx, docID)
		if err != nil || doc == nil {
			continue
		}
		var pageLines []string
		var significant []string
		for _, page := range doc.Pages {
			pageLines = append(pageLines, fmt.Sprintf("Page %d: %s", page.PageNum, page.Summary))
			if page.Significant {
				significant = append(significant,
					fmt.Sprintf("=== Page %d (Significant) ===\n%s", page.PageNum, page.Text))
			}
		}
		significantSection := "No significant pages."
		if len(significant) > 0 {
			significantSection = strings.Join(significant, "\n\n")
		}
		sections = append(sections, fmt.Sprintf(
			"DOCUMENT: %s (ID: %s)\nOverall Summary: %s\n\nALL PAGES:\n%s\n\nSIGNIFICANT PAGES (FULL TEXT):\n%s",
			doc.Filename, doc.ID, doc.Summary, strings.Join(pageLines, "\n"), significantSection))
	}
	if len(sections) == 0 {
		return fmt.Sprintf("Error: No documents found with IDs: %v", input.DocIDs), nil
	}
	return strings.Join(sections, "\n\n"+strings.Repeat("=", 80)+"\n\n"), nil
}

func (s *Service) getPageText(ctx context.Context, in interface{}) (string, error) {
	input := in.(*GetPagesInput)
	doc, err := s.documents.Load(ctx, input.DocID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return fmt.Sprintf("Error: Document %q not found", input.DocID), nil
	}
	var sections []string
	for _, pageNum := range input.PageNums {
		page := doc.Page(pageNum)
		if page == nil {
			sections = append(sections, fmt.Sprintf("Page %d: NOT FOUND", pageNum))
			continue
		}
		sections = append(sections, fmt.Sprintf("=== %s - Page %d ===\n%s", doc.Filename, pageNum, page.Text))
	}
	return strings.Join(sections, "\n\n"), nil
}

func (s *Service) getPageImage(ctx context.Context, in interface{}) (string, error) {
	input := in.(*GetPagesInput)
	doc, err := s.documents.Load(ctx, input.DocID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return fmt.Sprintf("Error: Document %q not found", input.DocID), nil
	}
	var lines []string
	for _, pageNum := range input.PageNums {
		page := doc.Page(pageNum)
		if page == nil || page.ImagePath == "" {
			lines = append(lines, fmt.Sprintf("Page %d: No image available", pageNum))
			continue
		}
		lines = append(lines, fmt.Sprintf("Page %d: %s", pageNum, page.ImagePath))
	}
	return strings.Join(lines, "\n"), nil
}
