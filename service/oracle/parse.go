package oracle

import (
	"strconv"
	"strings"
)

// Response section markers the analysis prompt asks the model to emit.
const (
	summaryMarker     = "SUMMARY:"
	significantMarker = "SIGNIFICANT_PAGES:"
)

// FallbackSummary is used when the analysis response cannot be parsed at all.
const FallbackSummary = "Document (analysis unavailable)"

// ParseAnalysis extracts the document summary and significant page numbers
// from a raw model response. Parsing is defensive: a malformed entry is
// skipped rather than failing the document, and a response without the
// expected markers degrades to a generic summary with no significant pages.
func ParseAnalysis(response string) *Analysis {
	response = strings.TrimSpace(response)
	if !strings.Contains(response, summaryMarker) || !strings.Contains(response, significantMarker) {
		return &Analysis{Summary: FallbackSummary}
	}

	parts := strings.SplitN(response, significantMarker, 2)
	summary := strings.TrimSpace(strings.Replace(parts[0], summaryMarker, "", 1))
	if summary == "" {
		summary = FallbackSummary
	}

	ret := &Analysis{Summary: summary}
	pagesText := strings.TrimSpace(parts[1])
	if pagesText == "" || pagesText == "None" || pagesText == "N/A" {
		return ret
	}
	for _, entry := range strings.Split(pagesText, ",") {
		num, err := strconv.Atoi(strings.TrimSpace(entry))
		if err != nil {
			continue
		}
		ret.SignificantPages = append(ret.SignificantPages, num)
	}
	return ret
}

// PageFallbackSummary derives a deterministic page summary from extracted
// text, used when the per-page oracle call fails.
func PageFallbackSummary(text string, pageNum int, maxChars int) string {
	if maxChars <= 0 {
		maxChars = 200
	}
	text = strings.TrimSpace(text)
	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return "Page " + strconv.Itoa(pageNum) + ": " + text
}
