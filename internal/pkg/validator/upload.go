package validator

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/stockchat/agent-backend/internal/config"
	"github.com/stockchat/agent-backend/internal/entity"
)

// allowedExtensions is the upload allow-list. Matching the ingestion
// extractors: anything else is rejected before touching the index.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
}

// Validator checks uploaded files against configured limits.
type Validator struct {
	cfg config.FileUploadConfig
}

func NewFileValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateUpload validates the full set of uploaded file headers.
func (v *Validator) ValidateUpload(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return entity.ErrNoFiles
	}

	if len(files) > v.cfg.MaxFileCount {
		return fmt.Errorf("%w: %d files, limit %d", entity.ErrTooManyFiles, len(files), v.cfg.MaxFileCount)
	}

	var total int64
	for _, fh := range files {
		if err := v.validateFile(fh); err != nil {
			return err
		}
		total += fh.Size
	}

	if total > v.cfg.MaxTotalSize {
		return fmt.Errorf("%w: total %d bytes, limit %d", entity.ErrFileTooLarge, total, v.cfg.MaxTotalSize)
	}

	return nil
}

func (v *Validator) validateFile(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %s", entity.ErrUnsupportedFileType, fh.Filename)
	}

	if fh.Size > v.cfg.MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
	}

	return nil
}
