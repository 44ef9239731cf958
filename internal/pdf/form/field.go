// Package form reads and fills AcroForm fields of PDF documents.
package form

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
)

// FieldType is the kind of an interactive form field.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeButton    FieldType = "button"
	FieldTypeChoice    FieldType = "choice"
	FieldTypeSignature FieldType = "signature"
	FieldTypeUnknown   FieldType = "unknown"
)

// Field describes one terminal form field.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Value    string    `json:"value,omitempty"`
	ReadOnly bool      `json:"read_only,omitempty"`
	Required bool      `json:"required,omitempty"`
}

// ListFields returns every terminal AcroForm field of the document at path,
// in document order. A document without a form yields no fields.
func ListFields(path string) ([]Field, error) {
	ctx, err := readContextFile(path)
	if err != nil {
		return nil, err
	}

	form, err := acroForm(ctx)
	if err != nil {
		return nil, err
	}
	nodes, err := terminalFields(ctx, form)
	if err != nil {
		return nil, eris.Wrapf(err, "list fields of %s", path)
	}

	fields := make([]Field, 0, len(nodes))
	for _, n := range nodes {
		fields = append(fields, Field{
			Name:     n.name,
			Type:     n.fieldType,
			Value:    fieldValue(ctx, n),
			ReadOnly: n.flags&1 != 0,
			Required: n.flags&2 != 0,
		})
	}
	return fields, nil
}

func fieldValue(ctx *model.Context, n node) string {
	obj, found := n.dict.Find("V")
	if !found {
		return ""
	}
	if s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return s
	}
	if name, err := ctx.DereferenceName(obj, model.V10, nil); err == nil {
		return string(name)
	}
	if arr, err := ctx.DereferenceArray(obj); err == nil && len(arr) > 0 {
		if s, err := ctx.DereferenceStringOrHexLiteral(arr[0], model.V10, nil); err == nil {
			return s
		}
	}
	return ""
}
