package form

import (
	"bytes"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rotisserie/eris"
)

// maxFieldDepth bounds recursion through malformed /Kids cycles.
const maxFieldDepth = 32

// node is a terminal field of the AcroForm tree.
type node struct {
	name      string
	partial   string
	fieldType FieldType
	flags     int
	dict      types.Dict
	widgets   []types.Dict
}

func readContextFile(path string) (*model.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return readContext(bytes.NewReader(data))
}

func readContext(rs io.ReadSeeker) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, eris.Wrap(err, "read PDF context")
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, eris.Wrap(err, "count pages")
	}
	return ctx, nil
}

// acroForm returns the interactive form dictionary, or nil when the
// document has none.
func acroForm(ctx *model.Context) (types.Dict, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, eris.Wrap(err, "read catalog")
	}

	obj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil
	}
	dict, err := ctx.DereferenceDict(obj)
	if err != nil {
		return nil, eris.Wrap(err, "dereference AcroForm")
	}
	return dict, nil
}

// terminalFields flattens the field tree rooted at the AcroForm /Fields array.
func terminalFields(ctx *model.Context, form types.Dict) ([]node, error) {
	if form == nil {
		return nil, nil
	}
	fieldsObj, found := form.Find("Fields")
	if !found {
		return nil, nil
	}
	fields, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, eris.Wrap(err, "dereference Fields array")
	}

	var nodes []node
	for _, obj := range fields {
		collect(ctx, obj, "", FieldTypeUnknown, 0, 0, &nodes)
	}
	return nodes, nil
}

func collect(ctx *model.Context, obj types.Object, parent string, inherited FieldType, inheritedFlags, depth int, out *[]node) {
	if depth > maxFieldDepth {
		return
	}
	dict, err := ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return
	}

	partial := stringEntry(ctx, dict, "T")
	name := partial
	switch {
	case partial == "":
		name = parent
	case parent != "":
		name = parent + "." + partial
	}

	flags := inheritedFlags
	if flagsObj, found := dict.Find("Ff"); found {
		if f, err := ctx.DereferenceInteger(flagsObj); err == nil && f != nil {
			flags = int(*f)
		}
	}
	fieldType := inherited
	if ft := nameEntry(ctx, dict, "FT"); ft != "" {
		fieldType = classify(ft, flags)
	} else if fieldType == FieldTypeCheckbox || fieldType == FieldTypeRadio || fieldType == FieldTypeButton {
		fieldType = classify("Btn", flags)
	}

	var children []types.Object
	var widgets []types.Dict
	if kidsObj, found := dict.Find("Kids"); found {
		if kids, err := ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kids {
				kidDict, err := ctx.DereferenceDict(kid)
				if err != nil || kidDict == nil {
					continue
				}
				if _, isField := kidDict.Find("T"); isField {
					children = append(children, kid)
				} else {
					widgets = append(widgets, kidDict)
				}
			}
		}
	}

	if len(children) > 0 {
		for _, child := range children {
			collect(ctx, child, name, fieldType, flags, depth+1, out)
		}
		return
	}

	if _, found := dict.Find("Rect"); found {
		widgets = append(widgets, dict)
	}
	if name == "" {
		return
	}

	*out = append(*out, node{
		name:      name,
		partial:   partial,
		fieldType: fieldType,
		flags:     flags,
		dict:      dict,
		widgets:   widgets,
	})
}

func classify(ft string, flags int) FieldType {
	switch ft {
	case "Btn":
		if flags&(1<<15) != 0 {
			return FieldTypeRadio
		}
		if flags&(1<<16) != 0 {
			return FieldTypeButton
		}
		return FieldTypeCheckbox
	case "Tx":
		return FieldTypeText
	case "Ch":
		return FieldTypeChoice
	case "Sig":
		return FieldTypeSignature
	default:
		return FieldTypeUnknown
	}
}

func stringEntry(ctx *model.Context, dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}

func nameEntry(ctx *model.Context, dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	n, err := ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return string(n)
}
