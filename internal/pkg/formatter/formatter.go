package formatter

import "fmt"

const baseTitle = "Stock Market Assistant"

// Formatter renders an answer as a downloadable document.
type Formatter interface {
	Format(plainText string) ([]byte, error)
	ContentType() string
	FileExtension() string
}

// Supported export formats.
const (
	FormatMarkdown = "markdown"
	FormatDOCX     = "docx"
	FormatPDF      = "pdf"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format string) (Formatter, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case FormatDOCX:
		return NewDOCXFormatter(), nil
	case FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
