package export

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"time"
)

// Archive reads archived day summaries.
type Archive interface {
	GetSummary(userID, day string) (string, error)
}

// Uploader pushes exported files to object storage.
type Uploader interface {
	Upload(ctx context.Context, userID string, result *Result) (string, error)
}

// Service provides day summary export functionality
type Service struct {
	archive  Archive
	uploader Uploader // nil when object storage is not configured
}

// NewService creates a new export service
func NewService(archive Archive, uploader Uploader) *Service {
	return &Service{archive: archive, uploader: uploader}
}

// Export generates an export in the requested format. The PDF path renders
// the Markdown document to HTML first and pushes it through headless Chrome.
// When object storage is configured the file is also uploaded there and the
// result carries a download URL.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	markdown, err := s.archive.GetSummary(req.UserID, req.Day)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSummaryUnavailable, req.Day)
	}

	title := fmt.Sprintf("Resumo %s", req.Day)

	var result *Result
	switch req.Format {
	case FormatMarkdown:
		result = &Result{
			Data:     []byte(markdown),
			Filename: sanitizeFilename(title) + ".md",
			MimeType: "text/markdown; charset=utf-8",
		}
	case FormatPDF:
		contentHTML, err := MarkdownToHTML(markdown)
		if err != nil {
			return nil, err
		}
		page, err := RenderSummaryHTML(TemplateData{
			Title:       title,
			Day:         req.Day,
			UserName:    req.UserName,
			ContentHTML: template.HTML(contentHTML),
			GeneratedAt: time.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		result, err = exportPDF(page, title)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}

	if s.uploader != nil {
		url, err := s.uploader.Upload(ctx, req.UserID, result)
		if err != nil {
			// Download still works, only the shareable link is missing.
			log.Printf("export: upload to object storage failed: %v", err)
		} else {
			result.URL = url
		}
	}

	return result, nil
}
