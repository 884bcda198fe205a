package export

import (
	"fmt"
	"strings"
)

// Format selects the rendered document type.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat normalises a user supplied format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Dataset defines tabular export content. Rows whose index is set in Flagged are emphasised
// where the format supports it.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
	Flagged map[int]bool
}

// Document is a rendered export ready to be served.
type Document struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Render produces a document for the dataset in the requested format.
func Render(format Format, data Dataset, basename string) (*Document, error) {
	if basename == "" {
		basename = "export"
	}
	switch format {
	case FormatCSV:
		content, err := NewCSVExporter().Render(data)
		if err != nil {
			return nil, err
		}
		return &Document{Content: content, ContentType: "text/csv", Filename: basename + ".csv"}, nil
	case FormatPDF:
		content, err := NewPDFExporter().Render(data)
		if err != nil {
			return nil, err
		}
		return &Document{Content: content, ContentType: "application/pdf", Filename: basename + ".pdf"}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
