// Package export turns archived day summaries into downloadable files.
package export

import "errors"

// Format represents the export output format
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "md"
)

// Request contains parameters for an export operation
type Request struct {
	UserID   string
	UserName string
	Day      string // YYYY-MM-DD
	Format   Format
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
	// URL is set when the file was uploaded to object storage.
	URL string
}

var (
	// ErrSummaryUnavailable indicates no archived summary exists for the day.
	ErrSummaryUnavailable = errors.New("export summary unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
