package pdf

import (
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// Reader extracts plain text from PDF files.
type Reader struct {
	validator *Validator
}

// NewReader creates a reader that refuses files above maxFileSize bytes.
func NewReader(maxFileSize int64) *Reader {
	return &Reader{validator: NewValidator(maxFileSize)}
}

// ExtractText returns the text of every page in order, each followed by a
// newline. A document without pages yields "".
func (r *Reader) ExtractText(path string) (string, error) {
	pages, err := r.ExtractPages(path)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, page := range pages {
		builder.WriteString(page)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// ExtractPages returns the text of each page. Failing on any page fails the
// whole document.
func (r *Reader) ExtractPages(path string) ([]string, error) {
	if err := r.validator.Validate(path); err != nil {
		return nil, err
	}

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open PDF %s", path)
	}
	defer f.Close()

	pages, err := extractPages(pdfReader)
	if err != nil {
		return nil, eris.Wrapf(err, "extract text from %s", path)
	}
	return pages, nil
}

func extractPages(pdfReader *pdf.Reader) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = eris.Errorf("pdf library panic: %v", rec)
		}
	}()

	numPages := pdfReader.NumPage()
	pages = make([]string, 0, numPages)
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return nil, eris.Wrapf(err, "page %d", pageNum)
		}
		pages = append(pages, content)
	}
	return pages, nil
}
