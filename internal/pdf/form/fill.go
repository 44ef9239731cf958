package form

import (
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Filler writes values into the AcroForm fields of a template.
type Filler struct {
	autoRegenerate bool
	logger         *zap.Logger
}

// Option configures a Filler.
type Option func(*Filler)

// WithAutoRegenerate sets the /NeedAppearances flag written to the form,
// asking viewers to rebuild field appearances.
func WithAutoRegenerate(on bool) Option {
	return func(f *Filler) { f.autoRegenerate = on }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFiller creates a Filler.
func NewFiller(opts ...Option) *Filler {
	f := &Filler{logger: zap.L()}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fill copies every page of templatePath to outputPath with the fields
// named in fieldData set. Names match either the fully qualified field
// name or its last component. Unknown names are ignored.
func (f *Filler) Fill(templatePath string, fieldData any, outputPath string) (string, error) {
	ctx, err := readContextFile(templatePath)
	if err != nil {
		return "", eris.Wrap(err, "open template")
	}

	values := Normalize(fieldData)
	f.logger.Info("filling PDF form",
		zap.String("template", templatePath),
		zap.Any("fields", values),
	)

	applied, err := f.apply(ctx, values)
	if err != nil {
		return "", err
	}

	if err := api.WriteContextFile(ctx, outputPath); err != nil {
		return "", eris.Wrapf(err, "write %s", outputPath)
	}

	f.logger.Info("wrote filled PDF",
		zap.String("output", outputPath),
		zap.Int("fields_set", applied),
	)
	return outputPath, nil
}

func (f *Filler) apply(ctx *model.Context, values map[string]string) (int, error) {
	form, err := acroForm(ctx)
	if err != nil {
		return 0, err
	}
	if form == nil {
		f.logger.Debug("template has no interactive form")
		return 0, nil
	}

	nodes, err := terminalFields(ctx, form)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, n := range nodes {
		value, ok := lookup(values, n)
		if !ok {
			continue
		}
		set, err := setValue(ctx, n, value)
		if err != nil {
			return applied, eris.Wrapf(err, "set field %s", n.name)
		}
		if set {
			applied++
		} else {
			f.logger.Debug("field type cannot hold a value",
				zap.String("field", n.name),
				zap.String("type", string(n.fieldType)),
			)
		}
	}

	form["NeedAppearances"] = types.Boolean(f.autoRegenerate)
	return applied, nil
}

func lookup(values map[string]string, n node) (string, bool) {
	if v, ok := values[n.name]; ok {
		return v, true
	}
	if n.partial != "" && n.partial != n.name {
		v, ok := values[n.partial]
		return v, ok
	}
	return "", false
}

func setValue(ctx *model.Context, n node, value string) (bool, error) {
	switch n.fieldType {
	case FieldTypeText, FieldTypeChoice, FieldTypeUnknown:
		encoded, err := encodeText(value)
		if err != nil {
			return false, err
		}
		n.dict["V"] = encoded
		return true, nil
	case FieldTypeCheckbox, FieldTypeRadio:
		state := types.Name(value)
		n.dict["V"] = state
		for _, w := range n.widgets {
			w["AS"] = widgetState(ctx, w, value)
		}
		return true, nil
	default:
		return false, nil
	}
}

// widgetState returns value when the widget has an appearance for it,
// otherwise Off.
func widgetState(ctx *model.Context, widget types.Dict, value string) types.Name {
	for _, state := range onStates(ctx, widget) {
		if state == value {
			return types.Name(value)
		}
	}
	return types.Name("Off")
}

func onStates(ctx *model.Context, widget types.Dict) []string {
	apObj, found := widget.Find("AP")
	if !found {
		return nil
	}
	ap, err := ctx.DereferenceDict(apObj)
	if err != nil || ap == nil {
		return nil
	}
	nObj, found := ap.Find("N")
	if !found {
		return nil
	}
	normal, err := ctx.DereferenceDict(nObj)
	if err != nil || normal == nil {
		return nil
	}

	states := make([]string, 0, len(normal))
	for k := range normal {
		if k != "Off" {
			states = append(states, k)
		}
	}
	sort.Strings(states)
	return states
}
