package formatter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Create(t *testing.T) {
	f := NewFactory()

	md, err := f.Create(FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, ".md", md.FileExtension())

	pdf, err := f.Create(FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, ".pdf", pdf.FileExtension())

	docx, err := f.Create(FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, ".docx", docx.FileExtension())

	_, err = f.Create("xlsx")
	assert.Error(t, err)
}

func TestMarkdownFormatter_Format(t *testing.T) {
	out, err := NewMarkdownFormatter().Format("Revenue grew twelve percent.")

	require.NoError(t, err)
	assert.Contains(t, string(out), "# "+baseTitle)
	assert.Contains(t, string(out), "Revenue grew twelve percent.")
}

func TestPDFFormatter_Format(t *testing.T) {
	out, err := NewPDFFormatter().Format("Revenue grew twelve percent.")

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output should be a PDF document")
}
