package pdf

import (
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// Validator checks that a path names a readable PDF within the size limit.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator. A non-positive maxFileSize disables
// the size check.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// Validate returns nil when path can be opened as a PDF.
func (v *Validator) Validate(path string) error {
	if path == "" {
		return eris.New("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return eris.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return eris.Wrap(err, "cannot access file")
	}

	if err := v.ValidateFileInfo(path, fileInfo); err != nil {
		return err
	}

	f, _, err := pdf.Open(path)
	if err != nil {
		return eris.Wrapf(err, "invalid PDF file %s", path)
	}
	return f.Close()
}

// ValidateFileInfo checks type, extension and size without opening the file.
func (v *Validator) ValidateFileInfo(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return eris.Errorf("path is a directory, not a file: %s", path)
	}
	if !IsPDFPath(path) {
		return eris.Errorf("file is not a PDF: %s", path)
	}
	if fileInfo.Size() == 0 {
		return eris.Errorf("file is empty: %s", path)
	}
	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return eris.Errorf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), v.maxFileSize)
	}
	return nil
}

// IsPDFPath reports whether path has a .pdf extension, ignoring case.
func IsPDFPath(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}
